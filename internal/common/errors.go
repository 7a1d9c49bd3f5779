// Package common defines shared constants and sentinel errors used across
// the niceweather server. Callers should use errors.Is to match these values;
// errors that carry an identifier wrap the sentinel with fmt.Errorf("%w: ...").
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Store errors. Begin/commit failures are wrapped with this sentinel.
	ErrStoreTransaction = errors.New("store transaction failure")

	// Account errors.
	ErrPasswordTooShort  = errors.New("password too short")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidLocation   = errors.New("invalid location")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Push registry errors.
	ErrInvalidDeviceType = errors.New("invalid device type")
	ErrInvalidPushToken  = errors.New("invalid push token")

	// Push provider outcomes.
	ErrProviderInvalidTarget = errors.New("provider: invalid target")
	ErrProviderTransient     = errors.New("provider: transient error")

	// Background job errors.
	ErrJobAlreadyRunning = errors.New("job already running")
)

// NotFound reports that the entity addressed by identifier does not exist.
func NotFound(identifier string) error {
	return fmt.Errorf("%w: %s", ErrorNotFound, identifier)
}

// UserAlreadyExists reports a username collision after normalization.
func UserAlreadyExists(username string) error {
	return fmt.Errorf("%w: %s", ErrUserAlreadyExists, username)
}

// IncorrectPassword reports a credential mismatch for username.
func IncorrectPassword(username string) error {
	return fmt.Errorf("%w: %s", ErrIncorrectPassword, username)
}
