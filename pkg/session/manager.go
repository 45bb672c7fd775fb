package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/projectbackend/backend/pkg/model"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultTTL is the absolute lifetime of a session
	DefaultTTL = 8 * time.Hour

	defaultTokenLength = 32
)

// ErrInvalidUserKey is returned when creating a session without a user
var ErrInvalidUserKey = errors.New("user key is required")

// Option configures a Manager
type Option func(*Manager)

// WithStore sets the backing store. The default is a MemoryStore.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithIdleTimeout expires sessions that go unused for timeout
func WithIdleTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.idleTimeout = timeout
		}
	}
}

// WithTokenLength sets the number of random bytes in a token
func WithTokenLength(length int) Option {
	return func(m *Manager) {
		if length > 0 {
			m.tokenLength = length
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithVerifyHook registers a callback invoked with the outcome of every verification
func WithVerifyHook(hook func(valid bool)) Option {
	return func(m *Manager) {
		m.onVerify = hook
	}
}

// Manager issues and verifies session tokens against a Store.
// It is safe for concurrent use.
type Manager struct {
	store        Store
	tokenLength  int
	tokenFactory func(int) (string, error)
	now          func() time.Time
	onVerify     func(valid bool)

	mu          sync.RWMutex
	absoluteTTL time.Duration
	idleTimeout time.Duration
}

// NewManager creates a Manager issuing sessions that live at most ttl
func NewManager(ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		absoluteTTL:  ttl,
		tokenLength:  defaultTokenLength,
		tokenFactory: generateToken,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	return m
}

// SetTimeouts changes the lifetimes applied from now on. Non-positive values
// leave the current setting untouched, except idle which disables the idle
// timeout when zero.
func (m *Manager) SetTimeouts(ttl, idle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		m.absoluteTTL = ttl
	}
	if idle >= 0 {
		m.idleTimeout = idle
	}
}

func (m *Manager) timeouts() (time.Duration, time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.absoluteTTL, m.idleTimeout
}

// Create issues a new token for the user and returns it with its expiry
func (m *Manager) Create(userKey int) (string, time.Time, error) {
	if userKey <= 0 {
		return "", time.Time{}, ErrInvalidUserKey
	}
	token, err := m.tokenFactory(m.tokenLength)
	if err != nil {
		return "", time.Time{}, err
	}

	ttl, idle := m.timeouts()
	now := m.now().UTC()
	absoluteExpiresAt := now.Add(ttl)
	expiresAt := absoluteExpiresAt
	if idle > 0 && now.Add(idle).Before(absoluteExpiresAt) {
		expiresAt = now.Add(idle)
	}

	err = m.store.Save(model.Session{
		TokenHash:         HashToken(token),
		UserKey:           userKey,
		ExpiresAt:         expiresAt,
		AbsoluteExpiresAt: absoluteExpiresAt,
		CreatedAt:         now,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify reports whether token names a live session.
// Store failures are logged and treated as an invalid session.
func (m *Manager) Verify(token string) bool {
	_, ok := m.Lookup(token)
	return ok
}

// Lookup returns the user owning a live session token
func (m *Manager) Lookup(token string) (int, bool) {
	record, ok, err := m.validate(token)
	if err != nil {
		log.Error().Err(err).Msg("Session verification failed")
		ok = false
	}
	if m.onVerify != nil {
		m.onVerify(ok)
	}
	if !ok {
		return 0, false
	}
	return record.UserKey, true
}

func (m *Manager) validate(token string) (model.Session, bool, error) {
	if token == "" {
		return model.Session{}, false, nil
	}
	hash := HashToken(token)
	record, ok, err := m.store.Get(hash)
	if err != nil || !ok {
		return model.Session{}, false, err
	}

	now := m.now().UTC()
	if record.IsExpired(now) {
		if err := m.store.Delete(hash); err != nil {
			log.Warn().Err(err).Msg("Failed to delete expired session")
		}
		return model.Session{}, false, nil
	}

	_, idle := m.timeouts()
	if idle > 0 {
		refreshTo := now.Add(idle)
		if refreshTo.After(record.AbsoluteExpiresAt) {
			refreshTo = record.AbsoluteExpiresAt
		}
		if refreshTo.After(record.ExpiresAt) {
			record.ExpiresAt = refreshTo
			if err := m.store.Save(record); err != nil {
				return model.Session{}, false, err
			}
		}
	}
	return record, true, nil
}

// Revoke deletes the session. Unknown and empty tokens are ignored.
func (m *Manager) Revoke(token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(HashToken(token))
}

// RevokeUser deletes every session of the user
func (m *Manager) RevokeUser(userKey int) error {
	return m.store.DeleteUser(userKey)
}

// PurgeExpired removes expired sessions from the store
func (m *Manager) PurgeExpired() error {
	return m.store.PurgeExpired(m.now().UTC())
}

// Ping verifies the store is reachable when it supports pinging
func (m *Manager) Ping(ctx context.Context) error {
	if pinger, ok := m.store.(interface{ Ping(context.Context) error }); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
