package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/arcadefolio/arcadefolio/internal/domain"
	"github.com/arcadefolio/arcadefolio/internal/present/rest/presenter"
)

// RateResult is the outcome of one limiter check.
type RateResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// RateLimiter counts hits per key within a window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateResult, error)
}

// RedisLimiter is a fixed window counter (INCR + EXPIRE).
type RedisLimiter struct {
	Client *redis.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{
		Client: client,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (RateResult, error) {
	now := time.Now()
	winStart, winEnd := l.windowBounds(now)
	redisKey := fmt.Sprintf("%s%s:%d", l.Prefix, key, winStart.Unix())

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireAt(ctx, redisKey, winEnd)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateResult{}, err
	}

	hits := incr.Val()
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	result := RateResult{
		Allowed:   hits <= l.Max,
		Remaining: remaining,
	}
	if !result.Allowed {
		// the counter key dies at the window boundary, so a blocked caller
		// waits the remainder of the window and never more
		result.RetryAfter = winEnd.Sub(now)
	}
	return result, nil
}

// windowBounds returns the fixed window containing now.
func (l *RedisLimiter) windowBounds(now time.Time) (time.Time, time.Time) {
	start := now.UTC().Truncate(l.Window)
	return start, start.Add(l.Window)
}

type ThrottleMiddleware struct {
	limiter RateLimiter
}

func NewThrottleMiddleware(limiter RateLimiter) *ThrottleMiddleware {
	return &ThrottleMiddleware{
		limiter: limiter,
	}
}

// Throttle limits write traffic per admin subject, falling back to the
// client IP before authentication. A limiter outage does not block
// writes; it is logged and the request passes.
func (m *ThrottleMiddleware) Throttle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		key, _ := ctx.Value(domain.AdminSubjectCtxKey).(string)
		if key == "" {
			key = c.RealIP()
		}

		result, err := m.limiter.Allow(ctx, key)
		if err != nil {
			slog.ErrorContext(
				ctx, "Rate limiter unavailable",
				slog.String("error", err.Error()),
				slog.String("module", "rest"),
			)
			return next(c)
		}

		if !result.Allowed {
			retry := int(result.RetryAfter / time.Second)
			if retry < 1 {
				retry = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
			return presenter.TooManyRequests(c, "too many requests")
		}

		return next(c)
	}
}
