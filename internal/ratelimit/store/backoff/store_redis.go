package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript increments the counter and re-arms its expiry in one round
// trip. The expiry mirrors models.BackoffExpiry.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ceiling = tonumber(ARGV[1])
local expiry = 1
if count >= 1 then
	expiry = 2 ^ math.min(count - 1, 32) + 1
end
if ceiling > 0 and expiry > ceiling then
	expiry = ceiling
end
redis.call('EXPIRE', KEYS[1], expiry)
return {count, expiry}
`)

// RedisStore keeps backoff counters in Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Increment bumps the counter for key and sets its expiry from the new count.
func (s *RedisStore) Increment(ctx context.Context, key string, ceiling time.Duration) (int64, time.Duration, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{key}, int64(ceiling/time.Second)).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("increment %s: %w", key, err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("increment %s: unexpected script reply %v", key, res)
	}
	return res[0], time.Duration(res[1]) * time.Second, nil
}

// TTL returns the remaining lifetime of key, or zero if it is absent.
func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ttl %s: %w", key, err)
	}
	// -2 means missing and -1 means no expiry; neither is a lockout.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
