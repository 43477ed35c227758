package domain

import (
	"errors"
	"fmt"
)

// ValidationError means the request was malformed before it ever reached the
// exchange. Nothing was sent; retrying the same input cannot succeed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TransientError wraps a failure that is expected to clear on its own:
// network trouble, timeouts, 5xx and rate-limit responses.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// RejectedError is a definitive refusal from the exchange. Status is the HTTP
// status, Code the exchange's machine-readable error code when it sent one.
type RejectedError struct {
	Op     string
	Status int
	Code   string
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: rejected (%d %s): %s", e.Op, e.Status, e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: rejected (%d): %s", e.Op, e.Status, e.Reason)
}

// KeyError means credential material could not be loaded or parsed.
type KeyError struct {
	Path string
	Err  error
}

func (e *KeyError) Error() string {
	return "key " + e.Path + ": " + e.Err.Error()
}

func (e *KeyError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

func IsRejected(err error) bool {
	var r *RejectedError
	return errors.As(err, &r)
}

func IsKeyError(err error) bool {
	var k *KeyError
	return errors.As(err, &k)
}
