// Package events provides lifecycle event bus implementations.
//
// Implementations:
//   - redis: Redis Streams with consumer groups (production)
//   - memory: In-memory for testing
package events
