package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReconnectRequired is terminal for a logical call: the silent refresh
// path is exhausted and the user must reconnect explicitly.
var ErrReconnectRequired = errors.New("reconnect required")

// AuthExpiredError is the typed form of the backend's authorization-expiry
// signal. The wire contract only gives us a message substring to go on, so
// classification stays a shim at this boundary; everything above it works
// with the type.
type AuthExpiredError struct {
	Message string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("authorization expired: %s", e.Message)
}

// APIError is a non-auth backend failure. Callers may retry later; the
// cache layer does not record the window as fetched.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error: %s (status %d)", e.Message, e.StatusCode)
}

// IsAuthExpired reports whether err carries an authorization-expiry
// classification anywhere in its chain.
func IsAuthExpired(err error) bool {
	var ae *AuthExpiredError
	return errors.As(err, &ae)
}

// authSignals are the message substrings the backend uses to flag an
// authorization problem, per its existing contract.
var authSignals = []string{"expired", "refresh token", "reconnect", "not connected"}

// classify turns a failed envelope into a typed error.
func classify(statusCode int, message string) error {
	lower := strings.ToLower(message)
	for _, signal := range authSignals {
		if strings.Contains(lower, signal) {
			return &AuthExpiredError{Message: message}
		}
	}
	return &APIError{StatusCode: statusCode, Message: message}
}
