package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aescanero/warden/internal/config"
	"github.com/aescanero/warden/pkg/domain"
)

// Agent is the worker-side runtime
type Agent struct {
	cfg    *config.AgentConfig
	logger *zap.Logger

	workerID string
	client   *http.Client

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new agent with a self-assigned worker id
func New(cfg *config.AgentConfig, logger *zap.Logger) *Agent {
	ctx, cancel := context.WithCancel(context.Background())

	return &Agent{
		cfg:      cfg,
		logger:   logger,
		workerID: uuid.New().String(),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// WorkerID returns the agent's worker id
func (a *Agent) WorkerID() string {
	return a.workerID
}

// Name returns the agent's display name
func (a *Agent) Name() string {
	return a.cfg.WorkerName
}

// Start registers with the coordinator and launches the heartbeat loop
func (a *Agent) Start() error {
	if err := a.register(a.ctx); err != nil {
		return err
	}

	a.wg.Add(1)
	go a.heartbeatLoop()

	return nil
}

// Shutdown stops the heartbeat loop and waits for it to exit
func (a *Agent) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down agent")

	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("agent shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// register announces the worker to the coordinator
func (a *Agent) register(ctx context.Context) error {
	payload := domain.RegisterRequest{
		WorkerID: a.workerID,
		Name:     a.cfg.WorkerName,
		Host:     hostIP(),
		Port:     a.cfg.WorkerPort,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal registration: %w", err)
	}

	url := a.cfg.GetManagerBaseURL() + "/api/v1/workers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to register with coordinator: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("registration rejected: %s: %s", resp.Status, detail)
	}

	a.logger.Info("registered with coordinator",
		zap.String("worker_id", a.workerID),
		zap.String("name", a.cfg.WorkerName))

	return nil
}

// heartbeatLoop keeps a heartbeat channel open until shutdown,
// re-registering and reconnecting after failures
func (a *Agent) heartbeatLoop() {
	defer a.wg.Done()

	for {
		if err := a.streamHeartbeats(); err != nil {
			a.logger.Warn("heartbeat channel lost", zap.Error(err))
		}

		select {
		case <-a.ctx.Done():
			return
		case <-time.After(a.cfg.ReconnectDelay):
		}

		// Re-register so the coordinator accepts the fresh channel even
		// if it considers this worker gone
		if err := a.register(a.ctx); err != nil {
			a.logger.Error("re-registration failed", zap.Error(err))
		}
	}
}

// streamHeartbeats dials the coordinator and sends one heartbeat per
// interval until the channel drops or the agent shuts down
func (a *Agent) streamHeartbeats() error {
	url := a.cfg.GetManagerWSURL(a.workerID)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial coordinator: %w", err)
	}
	defer func() { _ = conn.Close() }()

	a.logger.Info("heartbeat channel established", zap.String("url", url))

	// First heartbeat goes out immediately
	if err := a.sendHeartbeat(conn); err != nil {
		return err
	}

	ticker := time.NewTicker(a.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			// Polite close so the coordinator records the disconnect promptly
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case <-ticker.C:
			if err := a.sendHeartbeat(conn); err != nil {
				return err
			}
		}
	}
}

func (a *Agent) sendHeartbeat(conn *websocket.Conn) error {
	now := time.Now()
	hb := domain.Heartbeat{
		WorkerID:  a.workerID,
		Timestamp: &now,
	}

	if err := conn.WriteJSON(hb); err != nil {
		return fmt.Errorf("failed to send heartbeat: %w", err)
	}

	a.logger.Debug("heartbeat sent", zap.String("worker_id", a.workerID))
	return nil
}

// hostIP resolves this host's address, falling back to loopback
func hostIP() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "127.0.0.1"
	}

	addrs, err := net.LookupHost(hostname)
	if err != nil || len(addrs) == 0 {
		return "127.0.0.1"
	}

	return addrs[0]
}
