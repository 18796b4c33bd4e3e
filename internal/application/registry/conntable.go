package registry

import (
	"sync"

	"github.com/aescanero/warden/pkg/domain"
)

// Conn is the coordinator's handle to one worker's heartbeat channel
type Conn interface {
	// ReadHeartbeat blocks until the next heartbeat arrives or the
	// channel closes. Messages that cannot be decoded return an error
	// wrapping domain.ErrMalformedHeartbeat.
	ReadHeartbeat() (*domain.Heartbeat, error)

	// Close terminates the channel; safe to call more than once
	Close() error
}

// connTable maps worker ids to their live heartbeat channels. At most
// one connection is installed per worker id at any instant.
type connTable struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func newConnTable() *connTable {
	return &connTable{
		conns: make(map[string]Conn),
	}
}

// install makes c the live connection for workerID and returns the
// handle it replaced, if any. The caller closes the replaced handle
// outside the table lock.
func (t *connTable) install(workerID string, c Conn) Conn {
	t.mu.Lock()
	defer t.mu.Unlock()

	old := t.conns[workerID]
	t.conns[workerID] = c
	if old == c {
		return nil
	}
	return old
}

// remove drops the entry for workerID when owner is nil or still the
// installed handle. Idempotent; returns the removed connection, if any.
func (t *connTable) remove(workerID string, owner Conn) (Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.conns[workerID]
	if !ok {
		return nil, false
	}
	if owner != nil && current != owner {
		return nil, false
	}

	delete(t.conns, workerID)
	return current, true
}

// get returns the installed connection for workerID
func (t *connTable) get(workerID string) (Conn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.conns[workerID]
	return c, ok
}

// closeAll closes every installed connection, empties the table and
// returns the ids that had one. Used only at coordinator shutdown.
func (t *connTable) closeAll() []string {
	t.mu.Lock()
	conns := t.conns
	t.conns = make(map[string]Conn)
	t.mu.Unlock()

	ids := make([]string, 0, len(conns))
	for workerID, c := range conns {
		_ = c.Close()
		ids = append(ids, workerID)
	}
	return ids
}
