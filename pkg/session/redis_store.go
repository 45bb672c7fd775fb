package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/projectbackend/backend/pkg/model"

	redis "github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix  = "session:"
	defaultRedisTimeout = 3 * time.Second
)

// RedisStore keeps each session under its own key with a TTL matching the
// session expiry, so Redis evicts expired sessions by itself. A set per user
// indexes the token hashes so DeleteUser can find them; it lives until the
// latest absolute expiry among its members.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewRedisStore creates a RedisStore on an existing client
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: defaultRedisPrefix, timeout: defaultRedisTimeout}
}

// NewRedisStoreFromURL connects to the redis:// or rediss:// URL
func NewRedisStoreFromURL(url string) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts)), nil
}

func (s *RedisStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

func (s *RedisStore) userKey(userKey int) string {
	return s.prefix + "user:" + strconv.Itoa(userKey)
}

func (s *RedisStore) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *RedisStore) Save(record model.Session) error {
	deadline := record.ExpiresAt
	if record.AbsoluteExpiresAt.Before(deadline) {
		deadline = record.AbsoluteExpiresAt
	}
	ttl := time.Until(deadline)

	ctx, cancel := s.withTimeout()
	defer cancel()
	if ttl <= 0 {
		return s.client.Del(ctx, s.key(record.TokenHash)).Err()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	index := s.userKey(record.UserKey)
	indexTTL := time.Until(record.AbsoluteExpiresAt)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(record.TokenHash), payload, ttl)
		pipe.SAdd(ctx, index, record.TokenHash)
		pipe.ExpireNX(ctx, index, indexTTL)
		pipe.ExpireGT(ctx, index, indexTTL)
		return nil
	})
	return err
}

func (s *RedisStore) Get(tokenHash string) (model.Session, bool, error) {
	ctx, cancel := s.withTimeout()
	defer cancel()

	payload, err := s.client.Get(ctx, s.key(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, false, nil
		}
		return model.Session{}, false, err
	}

	var record model.Session
	if err := json.Unmarshal(payload, &record); err != nil {
		return model.Session{}, false, fmt.Errorf("corrupt session record: %w", err)
	}
	return record, true, nil
}

func (s *RedisStore) Delete(tokenHash string) error {
	ctx, cancel := s.withTimeout()
	defer cancel()
	return s.client.Del(ctx, s.key(tokenHash)).Err()
}

func (s *RedisStore) DeleteUser(userKey int) error {
	ctx, cancel := s.withTimeout()
	defer cancel()

	index := s.userKey(userKey)
	hashes, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(hashes)+1)
	for _, hash := range hashes {
		keys = append(keys, s.key(hash))
	}
	keys = append(keys, index)
	return s.client.Del(ctx, keys...).Err()
}

// PurgeExpired is a no-op; Redis expires keys itself.
func (s *RedisStore) PurgeExpired(time.Time) error {
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
