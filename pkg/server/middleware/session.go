package middleware

import (
	"context"
	"net/http"

	"github.com/projectbackend/backend/pkg/server/store"
)

// SessionHeader carries the session token on mutating requests
const SessionHeader = "X-API-Key"

type contextKey int

const (
	userKeyContextKey contextKey = iota
	tokenContextKey
)

// SessionAuthenticator is middleware that rejects requests without a live session
type SessionAuthenticator struct {
	Sessions store.SessionManager
}

// NewSessionAuthenticator creates a new session authenticator middleware
func NewSessionAuthenticator(sessions store.SessionManager) *SessionAuthenticator {
	return &SessionAuthenticator{Sessions: sessions}
}

// Middleware answers 401 with an empty body unless the X-API-Key header names
// a live session. The wrapped handler can read the caller with UserKey.
func (a *SessionAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(SessionHeader)

		userKey, ok := a.Sessions.Lookup(token)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userKeyContextKey, userKey)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserKey returns the primary key of the authenticated user
func UserKey(ctx context.Context) (int, bool) {
	key, ok := ctx.Value(userKeyContextKey).(int)
	return key, ok
}

// Token returns the session token the request was authenticated with
func Token(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}
