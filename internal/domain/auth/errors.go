package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when an email/password pair is rejected.
	// Callers must surface it to the user.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrRestoreFailed marks a failed token verification during initialization.
	ErrRestoreFailed = errors.New("session restore failed")

	// ErrRefreshFailed marks a failed best-effort user refresh.
	ErrRefreshFailed = errors.New("session refresh failed")

	// ErrLoginInProgress is returned when a second login starts while one is in flight.
	ErrLoginInProgress = errors.New("login already in progress")

	// ErrInvalidTransition is returned when an operation is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid session state transition")
)

// RestoreFailed wraps cause so that errors.Is(err, ErrRestoreFailed) holds.
func RestoreFailed(cause error) error {
	if cause == nil {
		return ErrRestoreFailed
	}
	return fmt.Errorf("%w: %w", ErrRestoreFailed, cause)
}

// RefreshFailed wraps cause so that errors.Is(err, ErrRefreshFailed) holds.
func RefreshFailed(cause error) error {
	if cause == nil {
		return ErrRefreshFailed
	}
	return fmt.Errorf("%w: %w", ErrRefreshFailed, cause)
}
