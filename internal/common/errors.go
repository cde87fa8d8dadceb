// Package common defines shared sentinel errors used across the vault engine.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Authentication errors.
	ErrorWrongPassword = errors.New("wrong password")
	ErrorLockedOut     = errors.New("account temporarily locked")
	ErrorAuthRequired  = errors.New("authentication required")

	// Remote-side errors.
	ErrorConnectivity       = errors.New("remote unreachable")
	ErrorRemoteUpdateFailed = errors.New("remote update failed after local commit")

	// Generic internal failure.
	ErrorInternal = errors.New("internal error")
)
