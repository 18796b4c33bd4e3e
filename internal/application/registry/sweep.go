package registry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/warden/pkg/domain"
)

// runSweep drives the periodic detection cycles until shutdown
func (m *Manager) runSweep() {
	defer m.sweeper.Done()

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.ctx)
		}
	}
}

// Sweep runs one detection cycle: snapshot all workers and demote any
// connected or alive worker whose reference time is older than the
// heartbeat timeout. Failures on one record never abort the cycle for
// the others.
func (m *Manager) Sweep(ctx context.Context) {
	records, err := m.store.List(ctx)
	if err != nil {
		m.logger.Error("sweep: failed to list workers", zap.Error(err))
		return
	}

	now := m.now()
	counts := make(map[domain.Status]int, len(domain.AllStatuses))

	for _, record := range records {
		status := record.Status
		if record.Stale(now, m.timeout) && m.demote(ctx, record.WorkerID) {
			status = domain.StatusNotResponding
		}
		counts[status]++
	}

	m.metrics.SetWorkerCounts(counts)
}

// demote re-reads the record under the worker lock and applies the
// not_responding transition. The re-read guards against a heartbeat
// that landed after the snapshot. Returns true if the worker was
// demoted.
func (m *Manager) demote(ctx context.Context, workerID string) bool {
	lock := m.workerLock(workerID)
	lock.Lock()
	defer lock.Unlock()

	record, err := m.store.Get(ctx, workerID)
	if err != nil {
		m.logger.Error("sweep: failed to reload worker",
			zap.String("worker_id", workerID),
			zap.Error(err))
		return false
	}

	if !record.Stale(m.now(), m.timeout) {
		return false
	}

	from := record.Status
	if err := record.TransitionTo(domain.StatusNotResponding, m.now()); err != nil {
		return false
	}
	if err := m.store.Put(ctx, record); err != nil {
		m.logger.Error("sweep: failed to persist status",
			zap.String("worker_id", workerID),
			zap.Error(err))
		return false
	}

	m.metrics.RecordSweepDemotion()
	m.publish(ctx, workerID, from, domain.StatusNotResponding)

	m.logger.Warn("worker is not responding",
		zap.String("worker_id", workerID),
		zap.String("name", record.Name),
		zap.Time("last_reference", record.ReferenceTime()))

	return true
}
