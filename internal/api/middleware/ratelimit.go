package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/customer-api/internal/api/metrics"
	"github.com/99minutos/customer-api/internal/core/domain"
)

// AttemptLimiter counts attempts per key within a fixed window.
type AttemptLimiter interface {
	// Allow records an attempt for key and reports whether it is within the
	// limit, the attempts left and the time until the window resets.
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Duration, err error)
	// Limit is the number of attempts allowed per window.
	Limit() int
}

// LoginRateLimit throttles login attempts per client IP. When the limiter
// itself fails the request is let through and the failure logged.
func LoginRateLimit(limiter AttemptLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "login:" + c.RealIP()
			allowed, remaining, reset, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("login rate limiter unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
			h.Set("X-RateLimit-Reset", strconv.Itoa(int(math.Ceil(reset.Seconds()))))

			if !allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(reset.Seconds()))))
				metrics.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
				return domain.ErrTooManyRequests
			}
			return next(c)
		}
	}
}
