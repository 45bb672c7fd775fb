package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/projectbackend/backend/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type failingStore struct {
	*MemoryStore
	err error
}

func (s *failingStore) Get(string) (model.Session, bool, error) {
	return model.Session{}, false, s.err
}

func TestSessionLifecycle(t *testing.T) {
	store := NewMemoryStore()
	manager := NewManager(time.Hour, WithStore(store))

	token, expiresAt, err := manager.Create(42)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.True(t, expiresAt.After(time.Now()))

	userKey, ok := manager.Lookup(token)
	assert.True(t, ok)
	assert.Equal(t, 42, userKey)
	assert.True(t, manager.Verify(token))

	require.NoError(t, manager.Revoke(token))
	assert.False(t, manager.Verify(token))
	assert.Equal(t, 0, store.Len())
}

func TestRevokeUser(t *testing.T) {
	store := NewMemoryStore()
	manager := NewManager(time.Hour, WithStore(store))

	first, _, err := manager.Create(1)
	require.NoError(t, err)
	second, _, err := manager.Create(1)
	require.NoError(t, err)
	other, _, err := manager.Create(2)
	require.NoError(t, err)

	require.NoError(t, manager.RevokeUser(1))

	assert.False(t, manager.Verify(first))
	assert.False(t, manager.Verify(second))
	assert.True(t, manager.Verify(other))
	assert.Equal(t, 1, store.Len())
}

func TestSessionStoresOnlyTokenHash(t *testing.T) {
	store := NewMemoryStore()
	manager := NewManager(time.Hour, WithStore(store))

	token, _, err := manager.Create(1)
	require.NoError(t, err)

	_, ok, err := store.Get(token)
	require.NoError(t, err)
	assert.False(t, ok)

	record, ok, err := store.Get(HashToken(token))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, record.UserKey)
}

func TestVerifyRejectsUnknownTokens(t *testing.T) {
	manager := NewManager(time.Hour)

	assert.False(t, manager.Verify(""))
	assert.False(t, manager.Verify("not-a-token"))
}

func TestCreateRequiresUserKey(t *testing.T) {
	manager := NewManager(time.Hour)

	_, _, err := manager.Create(0)
	assert.ErrorIs(t, err, ErrInvalidUserKey)
}

func TestAbsoluteExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	manager := NewManager(time.Minute, WithStore(store), WithClock(clock.Now))

	token, _, err := manager.Create(1)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	assert.True(t, manager.Verify(token))

	clock.Advance(time.Second)
	assert.False(t, manager.Verify(token))
	assert.Equal(t, 0, store.Len(), "expired session should be deleted on verify")
}

func TestIdleTimeoutSlidesUpToAbsoluteExpiry(t *testing.T) {
	clock := newFakeClock()
	manager := NewManager(time.Hour, WithIdleTimeout(10*time.Minute), WithClock(clock.Now))

	token, expiresAt, err := manager.Create(1)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(10*time.Minute), expiresAt)

	for i := 0; i < 5; i++ {
		clock.Advance(9 * time.Minute)
		require.True(t, manager.Verify(token), "activity should keep the session alive")
	}

	clock.Advance(9 * time.Minute)
	assert.True(t, manager.Verify(token))
	clock.Advance(5 * time.Minute)
	assert.True(t, manager.Verify(token))
	clock.Advance(time.Minute)
	assert.False(t, manager.Verify(token), "absolute expiry caps sliding renewal")
}

func TestIdleTimeoutExpiresUnusedSession(t *testing.T) {
	clock := newFakeClock()
	manager := NewManager(time.Hour, WithIdleTimeout(10*time.Minute), WithClock(clock.Now))

	token, _, err := manager.Create(1)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)
	assert.False(t, manager.Verify(token))
}

func TestSetTimeouts(t *testing.T) {
	clock := newFakeClock()
	manager := NewManager(time.Hour, WithClock(clock.Now))

	manager.SetTimeouts(time.Minute, 0)
	_, expiresAt, err := manager.Create(1)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Minute), expiresAt)

	manager.SetTimeouts(0, 30*time.Second)
	_, expiresAt, err = manager.Create(1)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(30*time.Second), expiresAt)
}

func TestStoreFailureIsInvalid(t *testing.T) {
	var results []bool
	manager := NewManager(time.Hour,
		WithStore(&failingStore{MemoryStore: NewMemoryStore(), err: errors.New("connection refused")}),
		WithVerifyHook(func(valid bool) { results = append(results, valid) }),
	)

	assert.False(t, manager.Verify("token"))
	assert.Equal(t, []bool{false}, results)
}

func TestPurgeExpired(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	manager := NewManager(time.Minute, WithStore(store), WithClock(clock.Now))

	_, _, err := manager.Create(1)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	live, _, err := manager.Create(2)
	require.NoError(t, err)

	clock.Advance(45 * time.Second)
	require.NoError(t, manager.PurgeExpired())

	assert.Equal(t, 1, store.Len())
	assert.True(t, manager.Verify(live))
}

func TestConcurrentVerify(t *testing.T) {
	manager := NewManager(time.Hour, WithIdleTimeout(time.Minute))
	token, _, err := manager.Create(1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, manager.Verify(token))
		}()
	}
	wg.Wait()
}
