// Package common defines shared constants and sentinel errors used across
// client and server layers of AideMoi. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage error")

	// Service-level errors.
	ErrInternal            = errors.New("internal error")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrWeakPassword        = errors.New("weak password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrHashing             = errors.New("password hashing failed")

	// Request authentication errors.
	ErrUnauthorized            = errors.New("access token is required")
	ErrTokenVerificationFailed = errors.New("invalid or expired token")
)
