package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/warden/pkg/domain"
)

// StatusStore implements ports.StatusStore using an in-memory map.
// This is for testing purposes only.
type StatusStore struct {
	records map[string]*domain.WorkerRecord
	mu      sync.RWMutex
}

// NewStatusStore creates a new in-memory status store
func NewStatusStore() *StatusStore {
	return &StatusStore{
		records: make(map[string]*domain.WorkerRecord),
	}
}

// Put creates or replaces the record for record.WorkerID (ports.StatusStore interface)
func (s *StatusStore) Put(ctx context.Context, record *domain.WorkerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to keep callers from mutating stored state
	s.records[record.WorkerID] = record.Clone()
	return nil
}

// Get returns the record for workerID (ports.StatusStore interface)
func (s *StatusStore) Get(ctx context.Context, workerID string) (*domain.WorkerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[workerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownWorker, workerID)
	}

	return record.Clone(), nil
}

// List returns all worker records (ports.StatusStore interface)
func (s *StatusStore) List(ctx context.Context) ([]*domain.WorkerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.WorkerRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record.Clone())
	}

	return records, nil
}

// Delete removes a worker record (ports.StatusStore interface)
func (s *StatusStore) Delete(ctx context.Context, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, workerID)
	return nil
}
