package domain

import "time"

// Heartbeat is the liveness message a worker sends over its channel.
// The timestamp is advisory; the coordinator's receipt time is what
// gets recorded in LastHeartbeatAt.
type Heartbeat struct {
	WorkerID  string     `json:"worker_id"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// RegisterRequest is the payload a worker submits to announce itself.
// WorkerID is optional; the coordinator assigns one when absent.
type RegisterRequest struct {
	WorkerID string `json:"worker_id,omitempty"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}
