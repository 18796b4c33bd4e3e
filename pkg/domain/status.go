package domain

// Status represents the liveness state of a worker as seen by the coordinator
type Status string

const (
	// StatusRegistered means the worker announced itself but has not
	// opened a heartbeat channel yet
	StatusRegistered Status = "registered"

	// StatusConnected means the heartbeat channel is open but no
	// heartbeat has been received on it yet
	StatusConnected Status = "connected"

	// StatusAlive means at least one heartbeat arrived within the
	// timeout window
	StatusAlive Status = "alive"

	// StatusNotResponding means the timeout elapsed without a heartbeat
	StatusNotResponding Status = "not_responding"

	// StatusDisconnected means the heartbeat channel closed; terminal
	// until the worker registers again
	StatusDisconnected Status = "disconnected"
)

// AllStatuses lists every worker status, in lifecycle order.
var AllStatuses = []Status{
	StatusRegistered,
	StatusConnected,
	StatusAlive,
	StatusNotResponding,
	StatusDisconnected,
}

// legalTransitions is the full transition table. A missing entry means
// the transition is illegal.
var legalTransitions = map[Status]map[Status]bool{
	StatusRegistered: {
		StatusConnected:    true,
		StatusDisconnected: true,
	},
	StatusConnected: {
		StatusAlive:         true,
		StatusNotResponding: true,
		StatusDisconnected:  true,
	},
	StatusAlive: {
		StatusAlive:         true,
		StatusNotResponding: true,
		StatusDisconnected:  true,
	},
	StatusNotResponding: {
		StatusAlive:        true,
		StatusDisconnected: true,
	},
	StatusDisconnected: {
		StatusConnected: true,
	},
}

// Valid returns true if s is a known worker status
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransition returns true if the state machine allows moving from s to next
func (s Status) CanTransition(next Status) bool {
	return legalTransitions[s][next]
}
