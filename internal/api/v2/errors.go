package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
	Field         string `json:"field,omitempty"`
}

// NewErrorResponse creates an error response. The correlation ID is the
// request trace ID so a client report can be matched with the logs.
func NewErrorResponse(err error, message string, code int, correlationID string) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	resp := &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		resp.Field = ee.Field()
	}
	return resp
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation, errors.CategoryFileParsing:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryLimit:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as an ErrorResponse. Client errors are logged at
// debug, server errors at error.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := statusFor(err)
	traceID := logger.TraceIDFromContext(ctx.Request().Context())
	resp := NewErrorResponse(err, message, code, traceID)

	log := c.log.WithContext(ctx.Request().Context())
	fields := []logger.Field{
		logger.String("path", ctx.Path()),
		logger.Int("status", code),
		logger.Error(err),
	}
	if resp.Field != "" {
		fields = append(fields, logger.String("field", resp.Field))
	}
	if code >= http.StatusInternalServerError {
		// server errors never leak internals to the client
		resp.Error = http.StatusText(code)
		log.Error(message, fields...)
	} else {
		log.Debug(message, fields...)
	}
	return ctx.JSON(code, resp)
}
