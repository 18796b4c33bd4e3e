// Package registry implements the core worker liveness tracking logic.
//
// The registry manager coordinates worker liveness by:
//   - Creating status records on registration
//   - Installing heartbeat channels into the connection table
//   - Running one ingestion loop per connection
//   - Running a single periodic sweep that demotes stale workers
//   - Publishing lifecycle events to the event bus
//
// All status changes go through the domain state machine; the status
// store is the only shared state between ingestion loops and the sweep.
package registry
