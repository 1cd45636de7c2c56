package bucket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"arbor/internal/ratelimit/models"
)

// slidingWindow trims, counts and conditionally records one request in a
// sorted set scored by unix milliseconds. Returns {allowed, count, oldest}.
var slidingWindow = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local first = now
if oldest[2] then first = tonumber(oldest[2]) end
return {allowed, count, first}
`)

// RedisStore shares windows across instances.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisStore) Allow(ctx context.Context, key string, policy models.Policy) (*models.Result, error) {
	now := s.now()
	res, err := slidingWindow.Run(ctx, s.client, []string{s.key(key)},
		now.UnixMilli(),
		policy.Window.Milliseconds(),
		policy.Limit,
		strconv.FormatInt(now.UnixNano(), 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	resetAt := time.UnixMilli(res[2]).Add(policy.Window)
	out := &models.Result{
		Allowed: res[0] == 1,
		Limit:   policy.Limit,
		ResetAt: resetAt,
	}
	if out.Allowed {
		out.Remaining = policy.Limit - int(res[1])
	} else {
		out.RetryAfter = resetAt.Sub(now)
	}
	return out, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
