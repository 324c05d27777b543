package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized covers every authentication failure: unknown user, wrong
// credentials, missing, expired, revoked or rotated-out sessions and tokens.
// Callers must not be able to tell these apart.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden means the caller is authenticated but its role does not
// satisfy the required permission.
var ErrForbidden = errors.New("forbidden")

// RateLimitedError is returned when a sensitive operation exceeded its
// attempt budget. RetryAfter is the wait until the oldest counted attempt
// leaves the window.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// ClientRegistrationError reports malformed OAuth client registration input.
type ClientRegistrationError struct {
	Field  string
	Reason string
}

func (e *ClientRegistrationError) Error() string {
	return fmt.Sprintf("invalid client registration: %s", e.Reason)
}

// ConfigurationError is fatal at startup only; it is never produced on the
// request path.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}
