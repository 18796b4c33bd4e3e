// Package domain holds the core worker liveness model.
//
// A WorkerRecord tracks one registered worker through its lifecycle:
//
//	registered -> connected -> alive -> not_responding -> disconnected
//
// Status changes only happen through TransitionTo, which enforces the
// legal transition table. The record is what gets persisted in the
// status store; connection handles live elsewhere.
package domain
