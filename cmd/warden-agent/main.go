package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aescanero/warden/internal/config"
	"github.com/aescanero/warden/pkg/agent"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.LoadAgent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting warden agent",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("name", cfg.WorkerName))

	// Create the agent and register with the coordinator
	a := agent.New(cfg, logger)
	if err := a.Start(); err != nil {
		logger.Fatal("failed to start agent", zap.Error(err))
	}

	// Start the agent's own HTTP server
	httpServer := agent.NewHTTPServer(cfg, a, logger)
	go func() {
		logger.Info("starting agent HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("agent HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("warden agent started",
		zap.String("worker_id", a.WorkerID()),
		zap.Int("port", cfg.WorkerPort),
		zap.Duration("heartbeat_interval", cfg.HeartbeatInterval))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("agent HTTP server shutdown error", zap.Error(err))
	}

	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("agent shutdown error", zap.Error(err))
	}

	logger.Info("warden agent shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
