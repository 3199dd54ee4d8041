package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pokemon-roulette/internal/config"
)

// tokenBucket drips tokens back continuously at refill/interval per
// millisecond, capped at capacity, then tries to take one.  Replies
// {allowed, whole tokens left, ms until the next token}.
var tokenBucket = redis.NewScript(`
local capacity, refill, interval = tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
local now = tonumber(ARGV[1])
local rate = refill / interval

local level = capacity
local stamp = now
local saved = redis.call('HMGET', KEYS[1], 'level', 'stamp')
if saved[1] and saved[2] then
    level = tonumber(saved[1])
    stamp = tonumber(saved[2])
    if now > stamp then
        level = math.min(capacity, level + (now - stamp) * rate)
    end
end

local ok, wait = 0, 0
if level >= 1 then
    ok = 1
    level = level - 1
else
    wait = math.ceil((1 - level) / rate)
end
redis.call('HSET', KEYS[1], 'level', tostring(level), 'stamp', now)
redis.call('EXPIRE', KEYS[1], ARGV[5])
return { ok, math.floor(level), wait }
`)

// NewTokenBucket limits requests per key with a Redis token bucket.  Redis
// errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			reply, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second)).Int64Slice()
			if err != nil || len(reply) != 3 {
				if cfg.Debug {
					slog.WarnContext(c.Request().Context(), "ratelimit: script failed", "key", key, "err", err)
				}
				return next(c)
			}
			remaining, waitMs := reply[1], reply[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if reply[0] != 1 {
				wait := time.Duration(waitMs) * time.Millisecond
				secs := int(math.Ceil(wait.Seconds()))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":          "too_many_requests",
					"retry_after_ms": waitMs,
				})
			}
			return next(c)
		}
	}
}

// keyParts lists the segments a key strategy may combine.
var keyParts = map[string]bool{"ip": true, "user": true, "route": true}

// rateKey builds the bucket key from cfg.KeyStrategy, an underscore
// separated list of ip, user and route.  Unknown strategies key on all
// three.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	segs := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
	for _, s := range segs {
		if !keyParts[s] {
			segs = []string{"ip", "user", "route"}
			break
		}
	}
	var b strings.Builder
	b.WriteString(cfg.Prefix)
	for _, s := range segs {
		var v string
		switch s {
		case "ip":
			if v = c.RealIP(); v == "" {
				v = "unknown"
			}
		case "user":
			v = rateSubject(c)
		case "route":
			v = c.Request().Method + " " + c.Path()
		}
		b.WriteString(":" + s + ":" + v)
	}
	return b.String()
}
