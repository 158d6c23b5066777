// Package auth provides the session-resolution and quota contracts the chat
// handlers consume, with lightweight reference implementations. Real
// deployments substitute their own.
package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned when no user can be resolved for a request.
var ErrUnauthorized = errors.New("no authenticated user")

// Sessions resolves the current user for an incoming request.
type Sessions interface {
	// UserID returns the identifier of the authenticated user, or
	// ErrUnauthorized when the request carries no valid session.
	UserID(r *http.Request) (string, error)
}

// TokenSessions maps bearer tokens to user identifiers. When AnonymousUser
// is non-empty, requests without a token resolve to that user instead of
// failing — convenient for local development.
type TokenSessions struct {
	Tokens        map[string]string
	AnonymousUser string
}

var _ Sessions = (*TokenSessions)(nil)

// UserID implements Sessions.
func (s *TokenSessions) UserID(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if s.AnonymousUser != "" {
			return s.AnonymousUser, nil
		}
		return "", ErrUnauthorized
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if userID, ok := s.Tokens[token]; ok {
		return userID, nil
	}
	return "", ErrUnauthorized
}
