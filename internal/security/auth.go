// Package security guards the engine's loopback API with an optional
// shared bearer token.
package security

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type TokenGuard struct {
	Required bool
	Token    string
}

// Allow authorizes a request. Comparison is constant-time so the guard
// leaks nothing about the expected token.
func (g TokenGuard) Allow(r *http.Request) bool {
	if !g.Required {
		return true
	}
	head := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(head, prefix) {
		return false
	}
	candidate := strings.TrimSpace(strings.TrimPrefix(head, prefix))
	if len(candidate) != len(g.Token) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(g.Token)) == 1
}
