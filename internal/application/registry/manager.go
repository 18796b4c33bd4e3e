package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/warden/pkg/domain"
	"github.com/aescanero/warden/pkg/ports"
)

// Manager owns the worker liveness registry: the status store, the
// connection table, the per-connection ingestion loops and the sweep.
type Manager struct {
	store     ports.StatusStore
	events    ports.EventBus
	metrics   ports.MetricsCollector
	validator *Validator
	logger    *zap.Logger

	timeout       time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	conns *connTable

	// locks serializes status mutations per worker id; different
	// workers proceed in parallel
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	sessions sync.WaitGroup
	sweeper  sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewManager creates a new registry manager
func NewManager(
	store ports.StatusStore,
	events ports.EventBus,
	metrics ports.MetricsCollector,
	validator *Validator,
	logger *zap.Logger,
	heartbeatTimeout time.Duration,
	sweepInterval time.Duration,
) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		store:         store,
		events:        events,
		metrics:       metrics,
		validator:     validator,
		logger:        logger,
		timeout:       heartbeatTimeout,
		sweepInterval: sweepInterval,
		now:           time.Now,
		conns:         newConnTable(),
		locks:         make(map[string]*sync.Mutex),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Register creates or replaces the status record for a worker and
// returns it. A fresh registration always starts in the registered
// state, with a new registered_at timestamp.
func (m *Manager) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.WorkerRecord, error) {
	if err := m.validator.ValidateRegistration(req); err != nil {
		return nil, err
	}

	workerID := req.WorkerID
	if workerID == "" {
		workerID = uuid.New().String()
	}

	lock := m.workerLock(workerID)
	lock.Lock()
	defer lock.Unlock()

	record := domain.NewWorkerRecord(workerID, req.Name, req.Host, req.Port, m.now())
	if err := m.store.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to register worker: %w", err)
	}

	// A re-registration invalidates any channel the previous
	// incarnation still holds; its ingestion loop exits quietly
	if old, ok := m.conns.remove(workerID, nil); ok {
		_ = old.Close()
	}

	m.metrics.RecordRegistration()
	m.publish(ctx, workerID, "", domain.StatusRegistered)

	m.logger.Info("worker registered",
		zap.String("worker_id", workerID),
		zap.String("name", req.Name),
		zap.String("host", req.Host),
		zap.Int("port", req.Port))

	return record, nil
}

// Attach installs a heartbeat channel for a registered worker and moves
// it to the connected state. The record is persisted before the channel
// becomes visible in the connection table; on error the caller owns
// closing the connection.
func (m *Manager) Attach(ctx context.Context, workerID string, conn Conn) error {
	lock := m.workerLock(workerID)
	lock.Lock()
	defer lock.Unlock()

	record, err := m.store.Get(ctx, workerID)
	if err != nil {
		return err
	}

	from := record.Status
	if err := record.TransitionTo(domain.StatusConnected, m.now()); err != nil {
		return err
	}
	if err := m.store.Put(ctx, record); err != nil {
		return fmt.Errorf("failed to persist connected status: %w", err)
	}

	if old := m.conns.install(workerID, conn); old != nil {
		_ = old.Close()
	}

	m.publish(ctx, workerID, from, domain.StatusConnected)

	m.logger.Info("worker connected",
		zap.String("worker_id", workerID),
		zap.String("name", record.Name))

	return nil
}

// Heartbeat applies one heartbeat to a connected worker. Heartbeats for
// workers with no installed connection are rejected, never silently
// dropped.
func (m *Manager) Heartbeat(ctx context.Context, workerID string, hb *domain.Heartbeat) error {
	if err := m.validator.ValidateHeartbeat(workerID, hb); err != nil {
		m.metrics.RecordProtocolError()
		return err
	}

	if _, ok := m.conns.get(workerID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotConnected, workerID)
	}

	lock := m.workerLock(workerID)
	lock.Lock()
	defer lock.Unlock()

	record, err := m.store.Get(ctx, workerID)
	if err != nil {
		return err
	}

	from := record.Status
	if err := record.TransitionTo(domain.StatusAlive, m.now()); err != nil {
		return err
	}
	if err := m.store.Put(ctx, record); err != nil {
		return fmt.Errorf("failed to persist heartbeat: %w", err)
	}

	m.metrics.RecordHeartbeat()
	if from != domain.StatusAlive {
		m.publish(ctx, workerID, from, domain.StatusAlive)
	}

	m.logger.Debug("heartbeat received",
		zap.String("worker_id", workerID))

	return nil
}

// Serve runs the heartbeat ingestion loop for one installed connection.
// It blocks until the channel closes, a message is rejected, or the
// coordinator shuts down, and always runs its disconnect cleanup before
// returning.
func (m *Manager) Serve(ctx context.Context, workerID string, conn Conn) {
	m.sessions.Add(1)
	defer m.sessions.Done()

	for {
		hb, err := conn.ReadHeartbeat()
		if err != nil {
			if errors.Is(err, domain.ErrMalformedHeartbeat) {
				m.metrics.RecordProtocolError()
			}
			m.teardown(ctx, workerID, conn, err)
			return
		}

		if err := m.Heartbeat(ctx, workerID, hb); err != nil {
			m.teardown(ctx, workerID, conn, err)
			return
		}
	}
}

// Disconnect closes any installed connection for a worker and marks it
// disconnected. Used administratively and at shutdown.
func (m *Manager) Disconnect(ctx context.Context, workerID string) error {
	if old, ok := m.conns.remove(workerID, nil); ok {
		_ = old.Close()
	}
	return m.markDisconnected(ctx, workerID)
}

// Remove deletes a worker's record and closes any installed channel.
// Administrative operation; normal lifecycle never deletes records.
func (m *Manager) Remove(ctx context.Context, workerID string) error {
	if old, ok := m.conns.remove(workerID, nil); ok {
		_ = old.Close()
	}

	lock := m.workerLock(workerID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.Delete(ctx, workerID); err != nil {
		return fmt.Errorf("failed to delete worker record: %w", err)
	}

	m.logger.Info("worker removed",
		zap.String("worker_id", workerID))

	return nil
}

// Get returns the status record for one worker
func (m *Manager) Get(ctx context.Context, workerID string) (*domain.WorkerRecord, error) {
	return m.store.Get(ctx, workerID)
}

// List returns the status records of all workers
func (m *Manager) List(ctx context.Context) ([]*domain.WorkerRecord, error) {
	return m.store.List(ctx)
}

// Start launches the background sweep loop
func (m *Manager) Start() error {
	m.logger.Info("starting liveness sweep",
		zap.Duration("heartbeat_timeout", m.timeout),
		zap.Duration("sweep_interval", m.sweepInterval))

	m.sweeper.Add(1)
	go m.runSweep()

	return nil
}

// Shutdown stops the sweep, closes all connections, marks the affected
// workers disconnected on a best-effort basis and drains the ingestion
// loops.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down registry")

	m.cancel()

	for _, workerID := range m.conns.closeAll() {
		if err := m.markDisconnected(ctx, workerID); err != nil {
			m.logger.Error("failed to mark worker disconnected",
				zap.String("worker_id", workerID),
				zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.sessions.Wait()
		m.sweeper.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("registry shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// teardown is the single exit path of an ingestion loop: close the
// channel, drop it from the table if it is still the installed one and
// record the disconnect.
func (m *Manager) teardown(ctx context.Context, workerID string, conn Conn, cause error) {
	_ = conn.Close()

	if _, ok := m.conns.remove(workerID, conn); !ok {
		// Replaced or already closed at shutdown; the newer owner
		// handles the status
		return
	}

	if err := m.markDisconnected(ctx, workerID); err != nil {
		m.logger.Error("failed to mark worker disconnected",
			zap.String("worker_id", workerID),
			zap.Error(err))
	}

	m.logger.Info("worker disconnected",
		zap.String("worker_id", workerID),
		zap.NamedError("cause", cause))
}

// markDisconnected applies the disconnected transition if the worker is
// not there already. The record is never deleted; the last known state
// stays queryable.
func (m *Manager) markDisconnected(ctx context.Context, workerID string) error {
	lock := m.workerLock(workerID)
	lock.Lock()
	defer lock.Unlock()

	record, err := m.store.Get(ctx, workerID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownWorker) {
			return nil
		}
		return err
	}

	if record.Status == domain.StatusDisconnected {
		return nil
	}

	from := record.Status
	if err := record.TransitionTo(domain.StatusDisconnected, m.now()); err != nil {
		return err
	}
	if err := m.store.Put(ctx, record); err != nil {
		return fmt.Errorf("failed to persist disconnected status: %w", err)
	}

	m.publish(ctx, workerID, from, domain.StatusDisconnected)
	return nil
}

// workerLock returns the mutex serializing mutations for one worker id
func (m *Manager) workerLock(workerID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[workerID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[workerID] = lock
	}
	return lock
}

// publish emits a lifecycle event; publication failures are logged and
// never affect the status change itself
func (m *Manager) publish(ctx context.Context, workerID string, from, to domain.Status) {
	event := ports.Event{
		ID:        uuid.New().String(),
		WorkerID:  workerID,
		From:      from,
		To:        to,
		Timestamp: m.now(),
	}

	if err := m.events.Publish(ctx, event); err != nil {
		m.logger.Error("failed to publish lifecycle event",
			zap.String("worker_id", workerID),
			zap.String("to", string(to)),
			zap.Error(err))
	}
}
