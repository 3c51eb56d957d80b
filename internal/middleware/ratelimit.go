package middleware

import (
    "fmt"
    "math"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/sanedge/user-management-api/internal/config"
)

// NewTokenBucket returns a Redis-backed token bucket limiter keyed per
// client IP and route. It protects the credential endpoints from brute
// force attempts; when rate limiting is disabled or Redis is down the
// middleware is a pass-through, favoring availability.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    // State and refill arithmetic live in a single Lua script so the
    // read-modify-write cycle is atomic under concurrent requests.
    limiter := redis.NewScript(`
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

        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end

        local allowed = 0
        local retry_after_ms = 0
        if tokens > 0 then
            allowed = 1
            tokens = tokens - 1
        else
            retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
        end

        redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
        redis.call('EXPIRE', key, ttl_seconds)
        return {allowed, retry_after_ms}
    `)

    intervalMs := cfg.RefillInterval.Milliseconds()
    ttlSeconds := int64(cfg.TTL.Seconds())

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, c.RealIP(), c.Path())
            nowMs := time.Now().UnixMilli()

            res, err := limiter.Run(c.Request().Context(), rdb, []string{key},
                nowMs, cfg.Capacity, cfg.RefillTokens, intervalMs, ttlSeconds).Slice()
            if err != nil || len(res) != 2 {
                // Limiter trouble never blocks traffic.
                return next(c)
            }
            allowed, _ := res[0].(int64)
            if allowed == 1 {
                return next(c)
            }

            retryMs, _ := res[1].(int64)
            retrySec := int(math.Ceil(float64(retryMs) / 1000.0))
            if retrySec < 1 {
                retrySec = 1
            }
            c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retrySec))
            return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests"})
        }
    }
}
