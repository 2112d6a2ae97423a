package services

import (
	"errors"
	"sort"
	"strings"

	"cms-panel/internal/models"
)

// Error kinds. Every error returned by a service either matches one of these
// through errors.Is or is an unexpected infrastructure failure.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = models.ErrNotFound
	ErrConflict     = models.ErrConstraint
	ErrUnavailable  = models.ErrConnection
)

var (
	ErrInvalidCredentials = NewError(ErrUnauthorized, "invalid credentials")
	ErrInvalidToken       = NewError(ErrUnauthorized, "invalid or expired token")
	ErrInsufficientRole   = NewError(ErrForbidden, "insufficient permissions")

	ErrUserNotFound   = NewError(ErrNotFound, "user not found")
	ErrUserExists     = NewError(ErrConflict, "email already in use")
	ErrLastAdmin      = NewError(ErrConflict, "the last admin user cannot be removed or demoted")
	ErrSelfDelete     = NewError(ErrConflict, "cannot delete your own account")
	ErrUserHasContent = NewError(ErrConflict, "user has authored posts or media and cannot be deleted")

	ErrPostNotFound   = NewError(ErrNotFound, "post not found")
	ErrPageNotFound   = NewError(ErrNotFound, "page not found")
	ErrSlugExists     = NewError(ErrConflict, "slug already exists")
	ErrMediaNotFound  = NewError(ErrNotFound, "media not found")
	ErrClientNotFound = NewError(ErrNotFound, "client not found")
	ErrClientExists   = NewError(ErrConflict, "a client with this email already exists")
)

type serviceError struct {
	kind error
	msg  string
}

// NewError returns an error with message msg that matches kind through errors.Is.
func NewError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

// ValidationError lists the fields that failed validation, keyed by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(pairs ...string) *ValidationError {
	v := &ValidationError{Fields: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Fields[pairs[i]] = pairs[i+1]
	}
	return v
}

// Add records a failure for field, keeping the first message.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
