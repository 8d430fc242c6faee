package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAuthRequired    = errors.New("authentication required")
	ErrForbidden       = errors.New("admin privileges required")
	ErrInvalidDuration = errors.New("invalid route duration")

	ErrInvalidCredentials = errors.New("invalid email or password")
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError is returned for malformed input and for rule violations
// such as seat conflicts. Conflicts lists the offending seats when set.
type ValidationError struct {
	Field     string
	Msg       string
	Conflicts []string
	Err       error
}

func (e ValidationError) Error() string {
	switch {
	case len(e.Conflicts) > 0:
		return fmt.Sprintf("seats already taken: %s", strings.Join(e.Conflicts, ", "))
	case e.Msg != "" && e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// ExternalServiceError marks a failure of a collaborator (event bus, mail)
// that happened after the primary state change was committed.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e ExternalServiceError) Unwrap() error { return e.Err }

func NewValidation(field, msg string) ValidationError {
	return ValidationError{Field: field, Msg: msg}
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

// SeatConflicts returns the conflicting seats carried by err, if any.
func SeatConflicts(err error) []string {
	var target ValidationError
	if errors.As(err, &target) {
		return target.Conflicts
	}
	return nil
}
