// Package common holds the sentinel errors, typed error kinds and small helpers
// shared by the repositories, services and transports of kokoto-httpd.
// Callers match sentinels with errors.Is and kinds with AsError.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Session lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
