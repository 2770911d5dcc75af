// Package ratelimit throttles credential endpoints with a fixed-window
// counter per client IP.
package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"comunidad/internal/errors"
)

const keyPrefix = "ratelimit:"

// Counter is the windowed counter backing the limiter. *cache.Client
// satisfies it.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Middleware rejects a client exceeding limit hits per window on a given
// route with 429. A counter of 0 means the backend is unavailable, in which
// case the request is allowed through (same fail-safe posture as the cache).
func Middleware(counter Counter, limit int64, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := keyPrefix + c.Path() + ":" + c.RealIP()
			count, err := counter.Incr(c.Request().Context(), key, window)
			if err == nil && count > limit {
				return c.JSON(http.StatusTooManyRequests, errors.ErrorResponse{
					Error: "too many requests, try again later",
					Code:  "RATE_LIMITED",
				})
			}
			return next(c)
		}
	}
}
