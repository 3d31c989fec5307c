package labeling

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound A referenced record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidState The annotation set is not ready for labeling
	ErrInvalidState = errors.New("invalid state")
	// ErrMisconfigured A required setting is missing
	ErrMisconfigured = errors.New("misconfigured")
)

// ServiceError wraps a failed call to an external collaborator, keeping the
// provisioning step that failed. Partial work stays committed; re-invoking
// StartLabeling is the recovery path.
type ServiceError struct {
	Step string
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
