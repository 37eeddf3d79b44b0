package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript keeps one sorted-set member per admitted event scored
// by its millisecond timestamp.
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
local count = redis.call("ZCARD", KEYS[1])
if count >= limit then
  local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
  local reset = window
  if oldest[2] then
    reset = tonumber(oldest[2]) + window - now
  end
  return {0, count, reset}
end
redis.call("ZADD", KEYS[1], now, ARGV[4])
redis.call("PEXPIRE", KEYS[1], window)
return {1, count + 1, window}
`)

type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	args := []interface{}{
		l.now().UnixMilli(),
		l.window.Milliseconds(),
		l.limit,
		uuid.NewString(),
	}
	res, err := slidingWindowScript.Run(ctx, l.rdb, []string{l.prefix + key}, args...).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	allowed, count, reset := toInt64(res[0]), toInt64(res[1]), toInt64(res[2])
	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed == 1,
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   time.Duration(reset) * time.Millisecond,
	}, nil
}

func toInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case string:
		i, _ := strconv.ParseInt(x, 10, 64)
		return i
	}
	return 0
}
