package session

import "errors"

var (
	ErrNotFound   = errors.New("session not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")

	// ErrVersionConflict is returned by repositories when a compare-and-swap
	// write observes a version other than the expected one.
	ErrVersionConflict = errors.New("version conflict")

	ErrInvalidTransition = errors.New("invalid session status transition")
)

// Conflict kinds. Each matches both itself and ErrConflict under errors.Is.
var (
	ErrDuplicate  = &conflictError{reason: "duplicate"}
	ErrClosed     = &conflictError{reason: "closed"}
	ErrEmpty      = &conflictError{reason: "empty"}
	ErrStaleWrite = &conflictError{reason: "concurrent modification"}
)

type conflictError struct {
	reason string
}

func (e *conflictError) Error() string {
	return "conflict: " + e.reason
}

func (e *conflictError) Is(target error) bool {
	return target == ErrConflict
}

// Reason returns the short conflict reason ("duplicate", "closed", ...).
func (e *conflictError) Reason() string {
	return e.reason
}
