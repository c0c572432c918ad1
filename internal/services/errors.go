// Package services defines the business logic for accounts, bookings and the
// gallery. This file centralizes service-level error values so that they can
// be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages, redirects or HTTP status codes is
// performed at the handler layer.
package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated is returned when an operation requires a signed-in
	// identity and none was supplied.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the acting identity fails the
	// administrator check.
	ErrForbidden = errors.New("not authorized")

	// ErrNotFound indicates that the requested booking or identity does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by Signup when the email is already registered.
	ErrConflict = errors.New("email is already registered")

	// ErrUnauthorized is returned by Login when no identity matches the
	// supplied credentials.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrInvalidInput is matched by every *ValidationError via errors.Is.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError enumerates per-field input problems. Fields maps a form
// field name to a human-readable message. Summary, when set, is a single
// message describing the whole form.
type ValidationError struct {
	Summary string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	if e.Summary != "" {
		parts = append([]string{e.Summary}, parts...)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Message returns Summary, or the first field message in field order.
func (e *ValidationError) Message() string {
	if e.Summary != "" {
		return e.Summary
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "Invalid input."
	}
	return e.Fields[keys[0]]
}

// Is lets callers test with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// add records msg for field unless the field already has a message.
func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// orNil returns e when it holds at least one problem.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 && e.Summary == "" {
		return nil
	}
	return e
}
