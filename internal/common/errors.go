// Package common defines shared constants and sentinel errors used across
// HEVault server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrorConflict signals a declared/supplied artifact count mismatch,
	// e.g. dictionary version list vs index vector parts on upload.
	ErrorConflict = errors.New("conflict")

	// Auth errors.
	ErrInvalidToken    = errors.New("invalid token")
	ErrUserNotVerified = errors.New("user not verified")
)
