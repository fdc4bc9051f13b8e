package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/mantamatcher/catalogcore/internal/logger"
)

// NewRequestID tags every request with a uuid and carries it into the
// request context as the log trace id.
func NewRequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}

// NewRateLimiter limits each client IP to perSecond requests with burst.
// A non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if burst <= 0 {
		burst = int(perSecond) + 1
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:  rate.Limit(perSecond),
				Burst: burst,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		DenyHandler: func(ctx echo.Context, _ string, _ error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error":   "rate_limited",
				"kind":    "RateLimited",
				"message": "too many requests, please wait before trying again",
			})
		},
	})
}

// NewBodyLimit caps request bodies.
func NewBodyLimit(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}
