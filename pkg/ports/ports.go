package ports

import (
	"context"
	"time"

	"github.com/aescanero/warden/pkg/domain"
)

// StatusStore is the durable key-value store for worker records.
// Writes are synchronous: when Put returns nil the record is persisted.
// Reads and writes to the same worker_id are linearizable; List may
// observe concurrent writes to other keys.
type StatusStore interface {
	// Put creates or replaces the record for record.WorkerID
	Put(ctx context.Context, record *domain.WorkerRecord) error

	// Get returns the record for workerID, or domain.ErrUnknownWorker
	Get(ctx context.Context, workerID string) (*domain.WorkerRecord, error)

	// List returns all records in no particular order
	List(ctx context.Context) ([]*domain.WorkerRecord, error)

	// Delete removes a record; administrative use only
	Delete(ctx context.Context, workerID string) error
}

// MetricsCollector records registry activity
type MetricsCollector interface {
	RecordRegistration()
	RecordHeartbeat()
	RecordSweepDemotion()
	RecordProtocolError()
	SetWorkerCounts(counts map[domain.Status]int)
}

// Event describes one status transition of one worker
type Event struct {
	ID        string        `json:"id"`
	WorkerID  string        `json:"worker_id"`
	From      domain.Status `json:"from"`
	To        domain.Status `json:"to"`
	Timestamp time.Time     `json:"timestamp"`
}

// EventHandler processes a single lifecycle event
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes worker lifecycle events to interested observers
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, handler EventHandler) error
}
