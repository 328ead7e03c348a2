package middleware

import (
	"time"

	applogger "TradeGate/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests through the structured logger.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)

			l.Info("http request",
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", req.RemoteAddr),
				applogger.Int("status", res.Status),
				applogger.Duration("latency_ms", time.Since(start)),
			)

			return err
		}
	}
}
