package middleware

import (
	"time"

	"bid-coordinator/internal/domain"
	"bid-coordinator/internal/services"
	"bid-coordinator/pkg/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RequestLogger logs every API request once it has been served.
func RequestLogger(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			log.Info("API request",
				"method", req.Method,
				"path", c.Path(),
				"uri", req.URL.Path,
				"status", c.Response().Status,
				"ms", time.Since(start).Seconds()*1000,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP())
			return nil
		}
	}
}

// RateLimiter limits each client IP to perSecond requests, refusing the
// excess with a RATE_LIMIT_EXCEEDED report.
func RateLimiter(perSecond float64, errs *services.ErrorHandlingService) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStore(rate.Limit(perSecond)),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			report := errs.Handle(domain.ErrRateLimitExceeded)
			return c.JSON(report.HTTPStatus, map[string]interface{}{"status": "fail", "data": report})
		},
	})
}
