package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aescanero/warden/internal/application/registry"
	"github.com/aescanero/warden/internal/config"
	redisevents "github.com/aescanero/warden/pkg/adapters/events/redis"
	"github.com/aescanero/warden/pkg/adapters/metrics/prometheus"
	redisstorage "github.com/aescanero/warden/pkg/adapters/storage/redis"
	"github.com/aescanero/warden/pkg/api/http"
	"github.com/aescanero/warden/pkg/api/websocket"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting warden coordinator",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Initialize Redis client
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// Initialize adapters
	statusStore := redisstorage.NewStatusStore(redisClient, logger)

	eventBus := redisevents.NewStreamsEventBus(
		redisClient,
		"warden-observers",
		fmt.Sprintf("warden-%d", os.Getpid()),
		logger,
	)

	metricsCollector := prometheus.NewCollector()

	// Initialize the registry
	validator := registry.NewValidator()

	registryMgr := registry.NewManager(
		statusStore,
		eventBus,
		metricsCollector,
		validator,
		logger,
		cfg.Liveness.HeartbeatTimeout,
		cfg.Liveness.SweepInterval,
	)

	// Start the sweep loop
	if err := registryMgr.Start(); err != nil {
		logger.Fatal("failed to start registry", zap.Error(err))
	}

	// Initialize API server
	httpServer := http.NewServer(&http.Config{
		Port:     cfg.HTTPPort,
		Registry: registryMgr,
		Logger:   logger,
	})

	// Add WebSocket handlers to HTTP server
	wsHandler := websocket.NewHandler(registryMgr, eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	// Start server
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("warden coordinator started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Duration("heartbeat_timeout", cfg.Liveness.HeartbeatTimeout),
		zap.Duration("sweep_interval", cfg.Liveness.SweepInterval))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Shutdown components
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := registryMgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("registry shutdown error", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("Redis close error", zap.Error(err))
	}

	logger.Info("warden coordinator shut down complete")
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
