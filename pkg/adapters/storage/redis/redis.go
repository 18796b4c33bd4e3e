package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/warden/pkg/domain"
)

// workersKey is the hash holding all worker records, keyed by worker_id
const workersKey = "warden:workers"

// StatusStore implements ports.StatusStore using a Redis hash
type StatusStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStatusStore creates a new Redis status store
func NewStatusStore(client *redis.Client, logger *zap.Logger) *StatusStore {
	return &StatusStore{
		client: client,
		logger: logger,
	}
}

// Put creates or replaces the record for record.WorkerID (ports.StatusStore interface)
func (s *StatusStore) Put(ctx context.Context, record *domain.WorkerRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal worker record: %w", err)
	}

	if err := s.client.HSet(ctx, workersKey, record.WorkerID, data).Err(); err != nil {
		return fmt.Errorf("failed to save worker record: %w", err)
	}

	s.logger.Debug("worker record saved",
		zap.String("worker_id", record.WorkerID),
		zap.String("status", string(record.Status)))

	return nil
}

// Get returns the record for workerID (ports.StatusStore interface)
func (s *StatusStore) Get(ctx context.Context, workerID string) (*domain.WorkerRecord, error) {
	data, err := s.client.HGet(ctx, workersKey, workerID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownWorker, workerID)
		}
		return nil, fmt.Errorf("failed to get worker record: %w", err)
	}

	var record domain.WorkerRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal worker record: %w", err)
	}

	return &record, nil
}

// List returns all worker records (ports.StatusStore interface)
func (s *StatusStore) List(ctx context.Context) ([]*domain.WorkerRecord, error) {
	entries, err := s.client.HGetAll(ctx, workersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list worker records: %w", err)
	}

	records := make([]*domain.WorkerRecord, 0, len(entries))
	for workerID, data := range entries {
		var record domain.WorkerRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			s.logger.Warn("skipping corrupt worker record",
				zap.String("worker_id", workerID),
				zap.Error(err))
			continue
		}
		records = append(records, &record)
	}

	return records, nil
}

// Delete removes a worker record (ports.StatusStore interface)
func (s *StatusStore) Delete(ctx context.Context, workerID string) error {
	if err := s.client.HDel(ctx, workersKey, workerID).Err(); err != nil {
		return fmt.Errorf("failed to delete worker record: %w", err)
	}

	s.logger.Debug("worker record deleted",
		zap.String("worker_id", workerID))

	return nil
}
