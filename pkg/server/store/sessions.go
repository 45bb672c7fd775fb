package store

import "time"

// SessionVerifier decides whether an opaque session token is currently valid
type SessionVerifier interface {
	Verify(token string) bool
}

// SessionManager issues, resolves and revokes session tokens
type SessionManager interface {
	SessionVerifier

	// Lookup returns the primary key of the user owning a valid token.
	Lookup(token string) (userKey int, ok bool)

	// Create issues a new token for the user.
	Create(userKey int) (token string, expiresAt time.Time, err error)

	// Revoke invalidates a token. Revoking an unknown token is not an error.
	Revoke(token string) error

	// RevokeUser invalidates every token of the user.
	RevokeUser(userKey int) error
}
