package authgate

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// DefaultRevocationTimeout bounds each store call when the store is
// network backed.
const DefaultRevocationTimeout = 2 * time.Second

const redisRevocationPrefix = "authgate:revoked:"

// RedisRevocationStore keeps revocations in Redis, sharing them across
// instances. Records expire with the token itself, so Redis prunes the
// blacklist for us. Every call has a bounded timeout; an unreachable
// store surfaces as an error so the gate can fail closed instead of
// admitting a possibly revoked token.
type RedisRevocationStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisRevocationStore creates a store over the given client. A zero
// timeout uses DefaultRevocationTimeout.
func NewRedisRevocationStore(client *redis.Client, timeout time.Duration) *RedisRevocationStore {
	if timeout <= 0 {
		timeout = DefaultRevocationTimeout
	}
	return &RedisRevocationStore{
		client:  client,
		timeout: timeout,
	}
}

// Revoke stores the token keyed by its string with a TTL that matches the
// token's remaining lifetime. SET is idempotent by nature.
func (s *RedisRevocationStore) Revoke(ctx context.Context, record RevokedToken) error {
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		// already expired, nothing to guard against
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, redisRevocationPrefix+record.Token, record.UserCode, ttl).Err(); err != nil {
		return errors.Wrap(err, ErrRevocationUnavailable.Category, ErrRevocationUnavailable.Message).
			WithTextCode(ErrRevocationUnavailable.TextCode)
	}
	return nil
}

// IsRevoked reports membership. Errors are surfaced, never swallowed.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Exists(ctx, redisRevocationPrefix+token).Result()
	if err != nil {
		return false, errors.Wrap(err, ErrRevocationUnavailable.Category, ErrRevocationUnavailable.Message).
			WithTextCode(ErrRevocationUnavailable.TextCode)
	}
	return n > 0, nil
}

// PurgeExpired is a no-op: Redis evicts records via their TTL.
func (s *RedisRevocationStore) PurgeExpired(ctx context.Context) (int, error) {
	return 0, nil
}

var _ RevocationStore = (*RedisRevocationStore)(nil)
