package prefs

import (
	"context"
	"errors"
	"time"

	"github.com/ZaguanLabs/newslate"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix prefixes every session preference key.
const DefaultRedisPrefix = "newslate:lang:"

// DefaultSessionTTL is how long an idle session keeps its choice.
const DefaultSessionTTL = 30 * 24 * time.Hour

// RedisStore keeps one session's preference in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore returns the store for session. A zero ttl keeps the
// preference forever.
func NewRedisStore(client *redis.Client, session string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    SessionKey(session),
		ttl:    ttl,
	}
}

// SessionKey returns the Redis key a session's preference is stored under.
func SessionKey(session string) string {
	return DefaultRedisPrefix + session
}

// Load returns the session's stored code.
func (s *RedisStore) Load(ctx context.Context) (string, bool, error) {
	code, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &newslate.CacheError{Message: "load language preference", Cause: err}
	}
	return code, code != "", nil
}

// Save stores code and refreshes the session's expiry.
func (s *RedisStore) Save(ctx context.Context, code string) error {
	if err := s.client.Set(ctx, s.key, code, s.ttl).Err(); err != nil {
		return &newslate.CacheError{Message: "save language preference", Cause: err}
	}
	return nil
}

var _ newslate.PreferenceStore = (*RedisStore)(nil)
