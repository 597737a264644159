package api

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"
)

// RateLimit returns middleware enforcing a server-wide token bucket of
// rps requests per second with the given burst. Exhausted requests get
// a 429 with the rate_limited error code.
func RateLimit(rps float64, burst int) echo.MiddlewareFunc {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if !limiter.Allow() {
				return writeError(c, http.StatusTooManyRequests, "rate_limited", "request rate limit exceeded")
			}
			return next(c)
		}
	}
}
