// Package store implements the record store: the in-memory snapshot of the
// client roster loaded from the backing tabular store, and every mutation
// against it. This file centralizes the store-level error taxonomy so that
// callers (services, handlers) classify failures with errors.Is instead of
// inspecting backend errors.
//
// Raw persistence errors never cross the store boundary: every failure is
// translated into one of these values (possibly wrapped with context).
package store

import "errors"

var (
	// ErrUnavailable reports that the backing store could not be reached or
	// written. Fatal to the current interaction; surfaced to the user and
	// never auto-retried.
	ErrUnavailable = errors.New("persistence unavailable")

	// ErrAlreadyExists is returned by InsertClient when the derived key is
	// already taken. The existing record is left untouched.
	ErrAlreadyExists = errors.New("client already exists")

	// ErrNotFound is returned when a key or row no longer exists, for
	// example after another session deleted it.
	ErrNotFound = errors.New("client not found")

	// ErrAmbiguousKey is returned when a lookup matches several rows.
	// The store refuses to guess which row was meant.
	ErrAmbiguousKey = errors.New("client key is ambiguous")

	// ErrIndexOutOfRange is returned when an intervention position points
	// past the current history, typically a stale UI selection.
	ErrIndexOutOfRange = errors.New("intervention position out of range")

	// ErrUnknownField is returned by UpdateClientField for a field name
	// outside the canonical column layout, or for the history column,
	// which is only writable through the intervention operations.
	ErrUnknownField = errors.New("unknown client field")
)
