// Package middleware provides HTTP middleware for the annotator API server.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/soundscape-lab/annotator/internal/logger"
)

// HeaderRequestID carries the trace ID of a request in both directions.
const HeaderRequestID = echo.HeaderXRequestID

// NewTraceID tags every request with a trace ID. A client supplied
// X-Request-ID is kept; otherwise a UUID is generated. The ID is echoed in
// the response and stored in the request context for logger.WithContext.
func NewTraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, id)
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
			return next(c)
		}
	}
}

// NewRequestLogger creates a request logging middleware using echo's
// RequestLoggerWithConfig.
func NewRequestLogger(log logger.Logger) echo.MiddlewareFunc {
	return NewRequestLoggerWithSkipper(log, nil)
}

// NewRequestLoggerWithSkipper creates a request logging middleware with a custom skipper.
func NewRequestLoggerWithSkipper(log logger.Logger, skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:     skipper,
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if log == nil {
				return nil
			}

			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}

			reqLog := log.WithContext(c.Request().Context())
			if v.Status >= 500 {
				reqLog.Warn("request", fields...)
				return nil
			}
			reqLog.Info("request", fields...)
			return nil
		},
	})
}
