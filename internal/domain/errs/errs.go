// Package errs defines the error kinds shared by the authorization,
// identity, verification and delegation services.
//
// Services wrap these sentinels with fmt.Errorf("...: %w", ...) and the HTTP
// layer classifies them with errors.Is.
package errs

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyProcessed is returned when an application is no longer pending.
	ErrAlreadyProcessed = errors.New("application already processed")
	// ErrForbidden is returned when an authorization check fails. It is always
	// returned before any mutation is attempted.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned for uniqueness violations and lost
	// compare-and-swap races. Callers may retry once.
	ErrConflict = errors.New("conflict")
	// ErrTransient marks storage errors that are safe to retry.
	ErrTransient = errors.New("transient storage error")
)

// ValidationError carries per-field messages. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records a message for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Empty reports whether no field messages were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error, or nil when no messages were recorded.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Retryable reports whether err is safe to retry: transient storage
// failures and conflicts. Authorization and validation failures are terminal.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrConflict)
}
