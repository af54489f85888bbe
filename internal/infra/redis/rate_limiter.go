package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// slidingWindow trims the log to the window, then admits and records in one step.
// KEYS[1]=log key; ARGV: now ms, window ms, limit, member.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", key, "-inf", "(" .. (now - window))
if redis.call("ZCARD", key) >= limit then
	return 0
end
redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)
return 1`)

// RateLimiter is a sliding-window log per origin and action kept in a sorted set.
type RateLimiter struct {
	cli    redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(cli redis.Cmdable, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{cli: cli, limit: limit, window: window, now: time.Now}
}

func (r *RateLimiter) Admit(ctx context.Context, origin, action string) (bool, error) {
	args := []interface{}{
		r.now().UnixMilli(),
		r.window.Milliseconds(),
		r.limit,
		uuid.NewString(),
	}
	n, err := slidingWindow.Run(ctx, r.cli, []string{RateLimitKey(origin, action)}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return n == 1, nil
}

func RateLimitKey(origin, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, origin)
}
