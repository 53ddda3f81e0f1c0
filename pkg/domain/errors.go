package domain

import "fmt"

// ValidationError indicates caller-supplied data violates an invariant.
// The operation was not attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// NotFoundError indicates a mutation referenced an unknown identifier
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("post %q not found", e.ID) }

// TransportError indicates a network or credential failure talking to an
// external service (feed, classifier, synthesizer).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// PersistenceError indicates the durability write failed after the in-memory
// mutation succeeded. In-memory state is retained, not rolled back.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence failed: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
