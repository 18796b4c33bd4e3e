package domain

import "errors"

var (
	// ErrUnknownWorker indicates an operation referenced a worker_id
	// with no record in the status store
	ErrUnknownWorker = errors.New("unknown worker")

	// ErrNotConnected indicates a heartbeat was applied to a worker
	// that has no installed connection (stale or spoofed sender)
	ErrNotConnected = errors.New("worker has no installed connection")

	// ErrIllegalTransition indicates a status change not allowed by
	// the state machine
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrMalformedHeartbeat indicates a heartbeat message that could
	// not be decoded or names the wrong worker for its connection
	ErrMalformedHeartbeat = errors.New("malformed heartbeat")
)
