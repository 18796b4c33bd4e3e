package registry

import (
	"fmt"

	"github.com/aescanero/warden/pkg/domain"
)

// Validator validates registration and heartbeat payloads
type Validator struct{}

// NewValidator creates a new payload validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRegistration validates a registration request
func (v *Validator) ValidateRegistration(req *domain.RegisterRequest) error {
	if req == nil {
		return fmt.Errorf("registration request is nil")
	}

	if req.Name == "" {
		return fmt.Errorf("worker name is required")
	}

	if req.Host == "" {
		return fmt.Errorf("worker host is required")
	}

	if req.Port < 1 || req.Port > 65535 {
		return fmt.Errorf("invalid worker port: %d", req.Port)
	}

	return nil
}

// ValidateHeartbeat validates a heartbeat against the connection it
// arrived on
func (v *Validator) ValidateHeartbeat(workerID string, hb *domain.Heartbeat) error {
	if hb == nil {
		return fmt.Errorf("%w: empty message", domain.ErrMalformedHeartbeat)
	}

	if hb.WorkerID != workerID {
		return fmt.Errorf("%w: heartbeat for %q on connection of %q",
			domain.ErrMalformedHeartbeat, hb.WorkerID, workerID)
	}

	return nil
}
