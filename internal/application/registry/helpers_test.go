package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	memoryevents "github.com/aescanero/warden/pkg/adapters/events/memory"
	memorystorage "github.com/aescanero/warden/pkg/adapters/storage/memory"
	"github.com/aescanero/warden/pkg/domain"
	"github.com/aescanero/warden/pkg/ports"
)

// fakeClock is an injectable clock for deterministic timing tests
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// stubMetrics counts collector calls without touching a real registry
type stubMetrics struct {
	mu             sync.Mutex
	registrations  int
	heartbeats     int
	demotions      int
	protocolErrors int
	counts         map[domain.Status]int
}

func (s *stubMetrics) RecordRegistration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations++
}

func (s *stubMetrics) RecordHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeats++
}

func (s *stubMetrics) RecordSweepDemotion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demotions++
}

func (s *stubMetrics) RecordProtocolError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocolErrors++
}

func (s *stubMetrics) SetWorkerCounts(counts map[domain.Status]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = counts
}

func (s *stubMetrics) demotionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demotions
}

func (s *stubMetrics) protocolErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocolErrors
}

// stubConn is a scriptable heartbeat channel
type stubConn struct {
	messages  chan *domain.Heartbeat
	closed    chan struct{}
	closeOnce sync.Once
}

func newStubConn() *stubConn {
	return &stubConn{
		messages: make(chan *domain.Heartbeat, 16),
		closed:   make(chan struct{}),
	}
}

func (c *stubConn) ReadHeartbeat() (*domain.Heartbeat, error) {
	select {
	case hb := <-c.messages:
		if hb == nil {
			return nil, domain.ErrMalformedHeartbeat
		}
		return hb, nil
	case <-c.closed:
		return nil, errors.New("connection closed")
	}
}

func (c *stubConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

func (c *stubConn) send(hb *domain.Heartbeat) {
	c.messages <- hb
}

func (c *stubConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func newTestManager(t *testing.T, timeout, sweepInterval time.Duration) (*Manager, *memorystorage.StatusStore, *fakeClock, *stubMetrics) {
	t.Helper()

	store := memorystorage.NewStatusStore()
	metrics := &stubMetrics{}
	clock := newFakeClock()

	m := NewManager(
		store,
		memoryevents.NewEventBus(),
		metrics,
		NewValidator(),
		zap.NewNop(),
		timeout,
		sweepInterval,
	)
	m.now = clock.Now

	return m, store, clock, metrics
}

// registerAndAttach registers a worker and installs a stub connection
func registerAndAttach(t *testing.T, m *Manager, workerID string) *stubConn {
	t.Helper()

	_, err := m.Register(context.Background(), &domain.RegisterRequest{
		WorkerID: workerID,
		Name:     workerID,
		Host:     "10.0.0.1",
		Port:     8001,
	})
	if err != nil {
		t.Fatalf("register %s: %v", workerID, err)
	}

	conn := newStubConn()
	if err := m.Attach(context.Background(), workerID, conn); err != nil {
		t.Fatalf("attach %s: %v", workerID, err)
	}

	return conn
}

func heartbeatFor(workerID string, at time.Time) *domain.Heartbeat {
	return &domain.Heartbeat{WorkerID: workerID, Timestamp: &at}
}

var _ ports.MetricsCollector = (*stubMetrics)(nil)
var _ Conn = (*stubConn)(nil)
