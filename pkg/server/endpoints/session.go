package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/projectbackend/backend/pkg/audit"
	"github.com/projectbackend/backend/pkg/server"
	"github.com/projectbackend/backend/pkg/server/middleware"
	"github.com/projectbackend/backend/pkg/server/store"
)

// LoginRequest is the body of POST /session/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries a freshly issued session token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegisterSessionEndpoints registers login, logout and verify
func RegisterSessionEndpoints(s *server.Server) {
	var login http.Handler = handleLogin(s.UsersStore, s.Sessions, s.ClientIP)
	if s.LoginLimiter != nil {
		login = s.LoginLimiter.Middleware(login)
	}

	s.Router.Handle("/session/login", login).Methods("POST")
	s.Router.HandleFunc("/session/logout", handleLogout(s.UsersStore, s.Sessions, s.ClientIP)).Methods("POST")
	s.Router.HandleFunc("/session/verify", handleVerify(s.Sessions)).Methods("GET")
}

func handleLogin(users store.UsersStore, sessions store.SessionManager, clientIP func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		event := audit.SessionEvent{
			Email:     req.Email,
			ClientIP:  clientIP(r),
			Operation: audit.OperationLogin,
		}

		user, err := users.Authenticate(req.Email, req.Password)
		if err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			if errors.Is(err, store.ErrInvalidCredentials) {
				respondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}
			respondWithStoreError(w, r, err)
			return
		}

		token, expiresAt, err := sessions.Create(user.PrimaryKey)
		if err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			log.Error().Err(err).Int("user_key", user.PrimaryKey).Msg("Failed to create session")
			respondWithError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		event.Email = user.Email
		event.Success = true
		audit.Log(event)

		respondWithJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
	}
}

// handleLogout revokes the presented token. Unknown tokens are not an error.
func handleLogout(users store.UsersStore, sessions store.SessionManager, clientIP func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(middleware.SessionHeader)

		event := audit.SessionEvent{
			ClientIP:  clientIP(r),
			Operation: audit.OperationLogout,
		}
		if userKey, ok := sessions.Lookup(token); ok {
			if user, err := users.Get(userKey); err == nil {
				event.Email = user.Email
			}
		}

		if err := sessions.Revoke(token); err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			log.Error().Err(err).Msg("Failed to revoke session")
			respondWithError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		event.Success = true
		audit.Log(event)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleVerify(sessions store.SessionVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sessions.Verify(r.Header.Get(middleware.SessionHeader)) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
