package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/projectbackend/backend/pkg/config"
	"github.com/projectbackend/backend/pkg/metrics"
	"github.com/projectbackend/backend/pkg/server/ratelimit"
	"github.com/projectbackend/backend/pkg/server/store"
)

// Deps are the shared collaborators handed to every endpoint
type Deps struct {
	Config       *config.BackendConfig
	Sites        store.SitesStore
	Users        store.UsersStore
	Health       store.HealthStore
	Sessions     store.SessionManager
	LoginLimiter *ratelimit.IPLimiter
	Metrics      *metrics.Metrics
	// AccessLog receives one combined-log-format line per request (stdout when nil)
	AccessLog io.Writer
}

type Server struct {
	Config       *config.BackendConfig
	Router       *mux.Router
	SitesStore   store.SitesStore
	UsersStore   store.UsersStore
	HealthStore  store.HealthStore
	Sessions     store.SessionManager
	LoginLimiter *ratelimit.IPLimiter
	Metrics      *metrics.Metrics
	srv          *http.Server
}

func NewServer(deps Deps, host string, port string) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	router := mux.NewRouter().UseEncodedPath()
	router.Use(deps.Metrics.Middleware)

	var handler http.Handler = handlers.CombinedLoggingHandler(accessLog, router)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)(handler)

	srv := &http.Server{
		Handler:           handler,
		Addr:              net.JoinHostPort(host, port),
		WriteTimeout:      15 * time.Second,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		Config:       deps.Config,
		Router:       router,
		SitesStore:   deps.Sites,
		UsersStore:   deps.Users,
		HealthStore:  deps.Health,
		Sessions:     deps.Sessions,
		LoginLimiter: deps.LoginLimiter,
		Metrics:      deps.Metrics,
		srv:          srv,
	}
}

// Handler returns the fully wrapped root handler
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.srv.Addr
}

// ClientIP resolves the address of the client behind any trusted proxies
func (s *Server) ClientIP(r *http.Request) string {
	if s.Config == nil {
		return ratelimit.ClientIP(r, nil)
	}
	return ratelimit.ClientIP(r, s.Config.IsTrustedProxy)
}

// Start serves until Shutdown is called. A clean shutdown is not an error.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on l until Shutdown is called
func (s *Server) Serve(l net.Listener) error {
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error().Msg(fmt.Sprint(v...))
}
