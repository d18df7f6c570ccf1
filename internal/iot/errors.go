package iot

import (
	"errors"
	"fmt"
)

// AuthError indicates the credential was rejected by the cloud API (401/403).
// Any operation failing with AuthError must end the session.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authorization rejected by cloud API (status %d)", e.StatusCode)
}

// NetworkError indicates a transport-level failure (DNS, connection, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ActionError indicates the remote system rejected a device or scenario
// action, including per-device failures reported inside an otherwise
// successful batch response.
type ActionError struct {
	TargetID string
	Code     string
	Message  string
}

func (e *ActionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("action rejected for %s: %s", e.TargetID, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("action rejected for %s: %s", e.TargetID, e.Code)
	}
	return fmt.Sprintf("action rejected for %s", e.TargetID)
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsActionError reports whether err is (or wraps) an ActionError.
func IsActionError(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae)
}
