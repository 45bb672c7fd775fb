package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/projectbackend/backend/pkg/audit"
	"github.com/projectbackend/backend/pkg/config"
	"github.com/projectbackend/backend/pkg/db"
	"github.com/projectbackend/backend/pkg/logging"
	"github.com/projectbackend/backend/pkg/metrics"
	"github.com/projectbackend/backend/pkg/seed"
	"github.com/projectbackend/backend/pkg/server"
	"github.com/projectbackend/backend/pkg/server/endpoints"
	"github.com/projectbackend/backend/pkg/server/ratelimit"
	gormstore "github.com/projectbackend/backend/pkg/server/store/gorm"
	"github.com/projectbackend/backend/pkg/session"
)

const shutdownTimeout = 10 * time.Second

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the backend application server",
	Long: `Run the backend application server.

To run the server requires the environment variable DATABASE_URL.

By default, database migrations are run on startup. Use --no-migrate to skip.
The configuration is reloaded on SIGHUP, and on every change of the config
file when --watch-config is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		watch, _ := cmd.Flags().GetBool("watch-config")

		if err := runServer(host, port, !noMigrate, watch); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("watch-config", false, "reload the configuration when the config file changes")
}

func runServer(host, port string, migrate, watch bool) error {
	cfg, err := config.Reload()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	accessLog := logging.Apply(logging.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile})
	audit.SetEnabled(cfg.AuditEnabled)

	if db.URL() == "" {
		return db.ErrNoDatabaseURL
	}

	if migrate {
		log.Info().Msg("Running database migrations...")
		status, err := db.Migrate(db.URL())
		if err != nil {
			return err
		}
		log.Info().Uint("version", status.Version).Msg("Database schema is up to date")
	}

	database, err := db.Connect(db.Config{Debug: cfg.LogLevel == "debug" || cfg.LogLevel == "trace"})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	sessionStore, closeSessionStore, err := newSessionStore(cfg, database)
	if err != nil {
		return err
	}
	defer func() { _ = closeSessionStore() }()

	sessions := session.NewManager(cfg.SessionTTLDuration(),
		session.WithStore(sessionStore),
		session.WithIdleTimeout(cfg.SessionIdleDuration()),
		session.WithVerifyHook(m.ObserveSessionVerification),
	)
	stopPurge := session.StartPurgeWorker(ctx, sessions, cfg.SessionPurgeDuration())
	defer stopPurge()

	limiter := newLoginLimiter(ctx, cfg, m)

	users := gormstore.NewUsersStore(database)
	seed.EnsureUser(users, cfg)

	s := server.NewServer(server.Deps{
		Config:       cfg,
		Sites:        gormstore.NewSitesStore(database),
		Users:        users,
		Health:       gormstore.NewHealthStore(database),
		Sessions:     sessions,
		LoginLimiter: limiter,
		Metrics:      m,
		AccessLog:    accessLog,
	}, host, port)
	endpoints.RegisterAll(s)

	reload := func(next *config.BackendConfig) {
		applyReloadedConfig(next, sessions, limiter)
	}
	go reloadOnHangup(ctx, reload)
	if watch {
		go func() {
			if err := config.Watch(ctx, reload); err != nil {
				log.Error().Err(err).Msg("Config watcher stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	log.Info().Str("addr", s.Addr()).Msg("Running server")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// newSessionStore opens the session backend selected by session_store.
// The returned close function releases its connections.
func newSessionStore(cfg *config.BackendConfig, database *gorm.DB) (session.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SessionStore {
	case "memory":
		return session.NewMemoryStore(), noop, nil
	case "redis":
		store, err := session.NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store, store.Close, nil
	case "gorm", "":
		return gormstore.NewSessionsStore(database), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

func newLoginLimiter(ctx context.Context, cfg *config.BackendConfig, m *metrics.Metrics) *ratelimit.IPLimiter {
	return ratelimit.New(ctx,
		ratelimit.WithRate(cfg.LoginRateLimit, cfg.LoginRateBurst),
		ratelimit.WithClientIP(func(r *http.Request) string {
			return ratelimit.ClientIP(r, cfg.IsTrustedProxy)
		}),
		ratelimit.WithOnFirstDenied(func(ip string) {
			log.Warn().Str("ip", ip).Msg("Login rate limit exceeded")
		}),
		ratelimit.WithOnDenied(func(string) {
			m.IncLoginRateLimited()
		}),
	)
}

// applyReloadedConfig pushes the settings that can change at runtime into the
// running components. trusted_proxies, session_store and redis_url need a restart.
func applyReloadedConfig(cfg *config.BackendConfig, sessions *session.Manager, limiter *ratelimit.IPLimiter) {
	logging.SetLevel(cfg.LogLevel)
	audit.SetEnabled(cfg.AuditEnabled)
	sessions.SetTimeouts(cfg.SessionTTLDuration(), cfg.SessionIdleDuration())
	limiter.SetRate(cfg.LoginRateLimit, cfg.LoginRateBurst)
}

func reloadOnHangup(ctx context.Context, reload func(*config.BackendConfig)) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-hup:
			cfg, err := config.Reload()
			if err != nil {
				log.Error().Err(err).Msg("Ignoring invalid configuration")
				continue
			}
			log.Info().Msg("Configuration reloaded")
			reload(cfg)
		case <-ctx.Done():
			return
		}
	}
}
