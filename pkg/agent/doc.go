// Package agent implements the worker-side runtime.
//
// An agent registers itself with the coordinator over HTTP, then keeps
// a WebSocket heartbeat channel open, sending one heartbeat per
// interval. When the channel drops it re-registers and reconnects
// after a delay.
package agent
