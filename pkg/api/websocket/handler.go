package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aescanero/warden/internal/application/registry"
	"github.com/aescanero/warden/pkg/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// Handler handles WebSocket connections
type Handler struct {
	registry *registry.Manager
	events   ports.EventBus
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(reg *registry.Manager, events ports.EventBus, logger *zap.Logger) *Handler {
	return &Handler{
		registry: reg,
		events:   events,
		logger:   logger,
	}
}

// HandleHeartbeats is the worker heartbeat endpoint. It upgrades the
// connection, installs it as the worker's channel and runs the
// ingestion loop until the channel closes.
func (h *Handler) HandleHeartbeats(c *gin.Context) {
	workerID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection",
			zap.String("worker_id", workerID),
			zap.Error(err))
		return
	}

	wc := newWorkerConn(conn)

	ctx := c.Request.Context()
	if err := h.registry.Attach(ctx, workerID, wc); err != nil {
		h.logger.Warn("rejecting heartbeat connection",
			zap.String("worker_id", workerID),
			zap.Error(err))
		_ = wc.Close()
		return
	}

	h.logger.Info("heartbeat channel established",
		zap.String("worker_id", workerID),
		zap.String("client", c.ClientIP()))

	h.registry.Serve(ctx, workerID, wc)
}

// HandleEventStream streams worker lifecycle events to an observer
func (h *Handler) HandleEventStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("event stream established",
		zap.String("client", c.ClientIP()))

	eventChan := make(chan ports.Event, 10)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	handler := func(ctx context.Context, event ports.Event) error {
		// Send to channel (non-blocking)
		select {
		case eventChan <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Channel full, skip event
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID))
		}
		return nil
	}

	if err := h.events.Subscribe(ctx, handler); err != nil {
		h.logger.Error("failed to subscribe to events", zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventChan:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Error("failed to write message", zap.Error(err))
				return
			}
		}
	}
}
