package middleware

import (
	"fmt"
	"log"
	"time"

	"authhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig controls the Redis token bucket applied to the abuse-prone
// auth endpoints (login, join, token requests).
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int64
	RefillTokens   int64
	RefillInterval time.Duration
	TTL            time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        true,
		Capacity:       10,
		RefillTokens:   1,
		RefillInterval: 6 * time.Second,
		TTL:            10 * time.Minute,
	}
}

// Buckets live in Redis so limits hold across replicas. State per key:
// remaining tokens and the last refill timestamp, advanced atomically by
// the script.
var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// RateLimit returns a token-bucket limiter keyed by client IP and path.
// Fails open: if Redis is down the request goes through and the outage is
// logged, since blocking all logins on a cache failure is worse.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", c.ClientIP(), c.FullPath())
		now := time.Now()

		args := []interface{}{
			now.UnixMilli(),
			cfg.Capacity,
			cfg.RefillTokens,
			cfg.RefillInterval.Milliseconds(),
			int64(cfg.TTL / time.Second),
		}

		vals, err := limiterScript.Run(c.Request.Context(), rdb, []string{key}, args...).Result()
		if err != nil {
			log.Printf("ratelimit: redis error for key=%s: %v", key, err)
			c.Next()
			return
		}

		allowed := false
		retryMs := int64(0)
		if arr, ok := vals.([]interface{}); ok && len(arr) == 3 {
			if v, ok := arr[0].(int64); ok {
				allowed = v == 1
			}
			if v, ok := arr[2].(int64); ok {
				retryMs = v
			}
		}

		if !allowed {
			retryAfter := retryMs/1000 + 1
			response.RateLimited(c, "RATE_LIMITED", "Too many requests, slow down", retryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}
