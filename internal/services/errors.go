// Package services defines the business logic over the record store: roster
// listing and search, client lifecycle, intervention management, and the
// two-step delete confirmation. This file centralizes service-level error
// values so they can be consistently returned by service methods and checked
// by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Validation and store errors pass through unchanged
// (domain.ErrValidation, store.ErrNotFound, and friends), so handlers only
// ever classify against those taxonomies plus the values below.
package services

import "errors"

var (
	// ErrConfirmationInvalid is returned by ConfirmDelete when the token is
	// unknown, expired, or was issued for a different client. The caller
	// must request a fresh confirmation.
	ErrConfirmationInvalid = errors.New("delete confirmation is invalid or expired")
)
