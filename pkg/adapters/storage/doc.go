// Package storage provides status store implementations.
//
// Implementations:
//   - redis: Redis hash with JSON serialization (production)
//   - memory: In-memory for testing
package storage
