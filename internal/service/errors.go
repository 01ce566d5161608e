package service

import "errors"

var (
	// ErrNotFound reports a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrForbidden reports a mutation attempted by someone other than the
	// resource's author.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials reports a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries a caller-facing message for rejected input,
// including duplicate toggle additions and removals of absent relations.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationError(message string) error {
	return &ValidationError{Message: message}
}
