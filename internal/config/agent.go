package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
)

// AgentConfig holds all configuration for the warden worker agent
type AgentConfig struct {
	WorkerName string `env:"WORKER_NAME"`
	WorkerPort int    `env:"WORKER_PORT" envDefault:"8001"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	ManagerHost string `env:"MANAGER_HOST" envDefault:"localhost"`
	ManagerPort int    `env:"MANAGER_PORT" envDefault:"8080"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"5s"`
	ReconnectDelay    time.Duration `env:"RECONNECT_DELAY" envDefault:"5s"`

	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"10s"`
}

// LoadAgent reads agent configuration from environment variables
func LoadAgent() (*AgentConfig, error) {
	cfg := &AgentConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse agent config: %w", err)
	}

	if cfg.WorkerName == "" {
		cfg.WorkerName = fmt.Sprintf("worker-%d", os.Getpid())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the agent configuration is valid
func (c *AgentConfig) Validate() error {
	if c.WorkerPort < 1 || c.WorkerPort > 65535 {
		return fmt.Errorf("invalid worker port: %d", c.WorkerPort)
	}

	if c.ManagerHost == "" {
		return fmt.Errorf("manager host is required")
	}
	if c.ManagerPort < 1 || c.ManagerPort > 65535 {
		return fmt.Errorf("invalid manager port: %d", c.ManagerPort)
	}

	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}

	if !validLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetWorkerAddr returns the agent's own HTTP listen address
func (c *AgentConfig) GetWorkerAddr() string {
	return fmt.Sprintf(":%d", c.WorkerPort)
}

// GetManagerBaseURL returns the coordinator's HTTP base URL
func (c *AgentConfig) GetManagerBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.ManagerHost, c.ManagerPort)
}

// GetManagerWSURL returns the coordinator's heartbeat WebSocket URL for
// a worker id
func (c *AgentConfig) GetManagerWSURL(workerID string) string {
	return fmt.Sprintf("ws://%s:%d/api/v1/workers/%s/ws", c.ManagerHost, c.ManagerPort, workerID)
}
