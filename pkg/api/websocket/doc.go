// Package websocket provides the worker heartbeat channel and the
// lifecycle event stream.
//
// Workers connect to /api/v1/workers/:id/ws and send heartbeat messages
// until they disconnect. Observers can connect to /api/v1/events/ws to
// receive status transition events in real time.
package websocket
