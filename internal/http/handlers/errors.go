// Package handlers defines HTTP-layer error codes used across all API
// endpoints of the roster API.
//
// These symbolic constants are mapped to HTTP responses via the fail()
// helper in response.go. They give clients a stable, machine-readable error
// taxonomy alongside the human-readable message.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Domain-specific codes cover cases a status alone cannot convey
//     (a stale history position, an unconfirmed delete, the backing
//     spreadsheet being unreachable).
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeValidation          = "validation_failed"
	ErrCodeStalePosition       = "stale_position"
	ErrCodeConfirmationInvalid = "confirmation_invalid"
	ErrCodeStoreUnavailable    = "persistence_unavailable"
)
