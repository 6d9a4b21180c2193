package sync

import (
	"errors"
	"fmt"
)

// The engine classifies collaborator failures into four kinds. Auth failures
// are never surfaced as an Error state (the auth layer owns recovery),
// network failures are retried exactly once on the post-login forced-refresh
// path, cache failures are logged only.

// AuthError marks a 401/403-class failure.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth failure: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError marks a transport-level failure (no response).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network failure: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError marks a failure reported by the remote service.
type ServerError struct {
	StatusCode int
	Err        error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server failure (%d): %v", e.StatusCode, e.Err)
}
func (e *ServerError) Unwrap() error { return e.Err }

// CacheError marks a local cache failure. The cache is an optimization, not
// a source of truth, so these are logged and never surfaced.
type CacheError struct {
	Err error
}

func (e *CacheError) Error() string { return fmt.Sprintf("cache failure: %v", e.Err) }
func (e *CacheError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an auth-class failure anywhere in its
// chain.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
