package models

import (
	"errors"
	"fmt"
)

// Error taxonomy. NetworkFailure is transient and always follows a local
// rollback; ConversationUnresolvable is terminal for the current action;
// BackendConflict is an expected control-flow signal during conversation
// creation and is never surfaced raw; ValidationFailure is rejected before
// any network call.
var (
	ErrConversationUnresolvable = errors.New("conversation could not be resolved")
	ErrNotFound                 = errors.New("not found")
)

// NetworkError wraps a transient transport failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError rejects input before it reaches the backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConflictError is returned when the backend rejects a creation with
// "already exists". Payload keeps the raw error body: the existing id may be
// recoverable from it.
type ConflictError struct {
	StatusCode int
	Payload    []byte
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("backend conflict (status %d)", e.StatusCode)
}

// IsConflict reports whether err is a backend conflict signal.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is a pre-network validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNetwork reports whether err is a transient transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
