package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/aescanero/warden/pkg/domain"
)

// workerConn adapts a gorilla WebSocket connection to registry.Conn
type workerConn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func newWorkerConn(conn *websocket.Conn) *workerConn {
	return &workerConn{conn: conn}
}

// ReadHeartbeat blocks until the next message or channel closure
func (w *workerConn) ReadHeartbeat() (*domain.Heartbeat, error) {
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("heartbeat channel closed: %w", err)
	}

	var hb domain.Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedHeartbeat, err)
	}

	return &hb, nil
}

// Close terminates the channel; safe to call more than once
func (w *workerConn) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}
