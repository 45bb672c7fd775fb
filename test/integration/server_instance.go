package integration

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/projectbackend/backend/pkg/config"
	"github.com/projectbackend/backend/pkg/metrics"
	"github.com/projectbackend/backend/pkg/server"
	"github.com/projectbackend/backend/pkg/server/endpoints"
	"github.com/projectbackend/backend/pkg/server/ratelimit"
	gormstore "github.com/projectbackend/backend/pkg/server/store/gorm"
	"github.com/projectbackend/backend/pkg/session"
)

// portCounter is used to allocate unique ports for each test server
var portCounter int32 = 19000

// ServerConfig holds the settings a scenario may vary per server instance
type ServerConfig struct {
	SessionTTL     time.Duration
	LoginRateLimit float64
	LoginRateBurst int
}

// DefaultServerConfig returns the default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		SessionTTL:     time.Hour,
		LoginRateLimit: 100,
		LoginRateBurst: 100,
	}
}

func (c ServerConfig) env() []string {
	return []string{
		"BACKEND_SESSION_TTL=" + strconv.Itoa(int(c.SessionTTL/time.Second)),
		"BACKEND_LOGIN_RATE_LIMIT=" + strconv.FormatFloat(c.LoginRateLimit, 'f', -1, 64),
		"BACKEND_LOGIN_RATE_BURST=" + strconv.Itoa(c.LoginRateBurst),
		"BACKEND_SESSION_STORE=gorm",
		"BACKEND_SEED_USER_ENABLED=false",
		"BACKEND_AUDIT_ENABLED=false",
	}
}

// ServerInstance represents a running backend server for a single test
type ServerInstance struct {
	ServerURL     string
	Port          int
	Config        ServerConfig
	cancel        context.CancelFunc
	server        *server.Server
	serverProcess *exec.Cmd
}

// StartServer creates and starts a new backend server against the test database.
// This supports both inline and binary modes based on how the test suite was started.
func StartServer(tc *TestContext, cfg ServerConfig) (*ServerInstance, error) {
	if tc.InlineMode {
		return startInlineServerInstance(tc, cfg)
	}
	return startBinaryServerInstance(tc, cfg)
}

// startInlineServerInstance starts an in-process server
func startInlineServerInstance(tc *TestContext, cfg ServerConfig) (*ServerInstance, error) {
	port := int(atomic.AddInt32(&portCounter, 1))

	ctx, cancel := context.WithCancel(context.Background())

	m := metrics.New()
	sessions := session.NewManager(cfg.SessionTTL,
		session.WithStore(gormstore.NewSessionsStore(tc.DB)),
		session.WithVerifyHook(m.ObserveSessionVerification),
	)
	limiter := ratelimit.New(ctx,
		ratelimit.WithRate(cfg.LoginRateLimit, cfg.LoginRateBurst),
		ratelimit.WithOnDenied(func(string) { m.IncLoginRateLimited() }),
	)

	backendConfig := config.Get()
	s := server.NewServer(server.Deps{
		Config:       backendConfig,
		Sites:        gormstore.NewSitesStore(tc.DB),
		Users:        gormstore.NewUsersStore(tc.DB),
		Health:       gormstore.NewHealthStore(tc.DB),
		Sessions:     sessions,
		LoginLimiter: limiter,
		Metrics:      m,
		AccessLog:    io.Discard,
	}, "127.0.0.1", strconv.Itoa(port))
	endpoints.RegisterAll(s)

	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create listener on port %d: %w", port, err)
	}

	instance := &ServerInstance{
		ServerURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:      port,
		Config:    cfg,
		cancel:    cancel,
		server:    s,
	}

	go func() {
		_ = s.Serve(listener)
	}()

	if err := waitForServer(instance.ServerURL, 10*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return instance, nil
}

// startBinaryServerInstance starts a server using the backendctl binary
func startBinaryServerInstance(tc *TestContext, cfg ServerConfig) (*ServerInstance, error) {
	port := int(atomic.AddInt32(&portCounter, 1))
	portStr := strconv.Itoa(port)

	ctx, cancel := context.WithCancel(context.Background())

	// Migrations already ran in the test setup
	cmd := exec.CommandContext(ctx, tc.BinaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", portStr)
	cmd.Env = append(os.Environ(), "DATABASE_URL="+tc.DatabaseURL, "BACKEND_CONFIG_PATH="+os.TempDir())
	cmd.Env = append(cmd.Env, cfg.env()...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start binary: %w", err)
	}

	instance := &ServerInstance{
		ServerURL:     fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:          port,
		Config:        cfg,
		cancel:        cancel,
		serverProcess: cmd,
	}

	if err := waitForServer(instance.ServerURL, 30*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return instance, nil
}

// Stop shuts down the server instance
func (si *ServerInstance) Stop() {
	if si.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = si.server.Shutdown(ctx)
		cancel()
	}
	if si.cancel != nil {
		si.cancel()
	}
	if si.serverProcess != nil && si.serverProcess.Process != nil {
		_ = si.serverProcess.Process.Kill()
		_ = si.serverProcess.Wait()
	}
}

