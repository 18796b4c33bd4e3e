package domain

import (
	"fmt"
	"time"
)

// WorkerRecord is the persistent status record for one registered worker.
// Exactly one record exists per worker_id; re-registration replaces it.
type WorkerRecord struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`

	Status Status `json:"status"`

	// LastHeartbeatAt is nil until the first heartbeat arrives on the
	// current connection
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at,omitempty"`

	// ConnectedAt is the time the status last entered connected; used
	// as the timeout reference for workers that never heartbeat
	ConnectedAt *time.Time `json:"connected_at,omitempty"`

	RegisteredAt time.Time `json:"registered_at"`
}

// NewWorkerRecord creates a fresh record in the registered state
func NewWorkerRecord(workerID, name, host string, port int, now time.Time) *WorkerRecord {
	return &WorkerRecord{
		WorkerID:     workerID,
		Name:         name,
		Host:         host,
		Port:         port,
		Status:       StatusRegistered,
		RegisteredAt: now,
	}
}

// TransitionTo applies a status transition at time now, enforcing the
// legal transition table and the timestamp side effects:
//   - entering connected stamps ConnectedAt and clears LastHeartbeatAt
//   - entering alive stamps LastHeartbeatAt (never moves it backwards)
func (w *WorkerRecord) TransitionTo(next Status, now time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, w.Status, next)
	}
	if !w.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, w.Status, next)
	}

	switch next {
	case StatusConnected:
		w.ConnectedAt = &now
		w.LastHeartbeatAt = nil
	case StatusAlive:
		if w.LastHeartbeatAt == nil || now.After(*w.LastHeartbeatAt) {
			w.LastHeartbeatAt = &now
		}
	}

	w.Status = next
	return nil
}

// ReferenceTime is the timestamp the sweep compares against the
// heartbeat timeout: the last heartbeat if any, otherwise the time the
// worker last entered connected.
func (w *WorkerRecord) ReferenceTime() time.Time {
	if w.LastHeartbeatAt != nil {
		return *w.LastHeartbeatAt
	}
	if w.ConnectedAt != nil {
		return *w.ConnectedAt
	}
	return w.RegisteredAt
}

// Stale reports whether the worker is in a sweepable state and its
// reference time is older than the timeout
func (w *WorkerRecord) Stale(now time.Time, timeout time.Duration) bool {
	if w.Status != StatusConnected && w.Status != StatusAlive {
		return false
	}
	return now.Sub(w.ReferenceTime()) > timeout
}

// Clone returns a deep copy of the record
func (w *WorkerRecord) Clone() *WorkerRecord {
	cp := *w
	if w.LastHeartbeatAt != nil {
		t := *w.LastHeartbeatAt
		cp.LastHeartbeatAt = &t
	}
	if w.ConnectedAt != nil {
		t := *w.ConnectedAt
		cp.ConnectedAt = &t
	}
	return &cp
}
