// Package api exposes the annotation result engine over HTTP.
//
// Routes are registered under /api/v2. Errors are returned as ErrorResponse
// with a status derived from the error category.
package api

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/soundscape-lab/annotator/internal/annotation"
	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
)

// Pinger reports datastore connectivity for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller holds the handlers of the v2 API.
type Controller struct {
	Echo    *echo.Echo
	Group   *echo.Group
	service *annotation.Service
	db      Pinger
	log     logger.Logger
	version string

	startTime time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger sets the controller logger, normally one scoped to the "api" module.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithVersion sets the version reported by the health check.
func WithVersion(version string) Option {
	return func(c *Controller) {
		c.version = version
	}
}

// New creates the controller and registers its routes on e. The echo
// Validator is installed unless one is already set.
func New(e *echo.Echo, service *annotation.Service, db Pinger, opts ...Option) *Controller {
	c := &Controller{
		Echo:      e,
		service:   service,
		db:        db,
		log:       logger.Discard(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if e.Validator == nil {
		e.Validator = NewValidator()
	}
	c.Group = e.Group("/api/v2")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.Group.POST("/phases/:phaseId/results/import", c.ImportResults)
	c.Group.POST("/phases/:phaseId/results", c.CreateResult)
	c.Group.PUT("/results/:id", c.UpdateResult)
	c.Group.GET("/results/:id", c.GetResult)
}

// HealthCheck reports service status and database connectivity.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	uptime := time.Since(c.startTime)
	response := map[string]any{
		"status":          "healthy",
		"version":         c.version,
		"database_status": "connected",
		"uptime":          uptime.String(),
		"uptime_seconds":  uptime.Seconds(),
		"timestamp":       time.Now().Format(time.RFC3339),
	}

	status := http.StatusOK
	if c.db != nil {
		if err := c.db.Ping(ctx.Request().Context()); err != nil {
			response["status"] = "degraded"
			response["database_status"] = "disconnected"
			response["database_error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	return ctx.JSON(status, response)
}

// requestValidator adapts validator/v10 to echo.Validator.
type requestValidator struct {
	validate *validator.Validate
}

// NewValidator returns an echo.Validator that reports fields by their JSON
// names.
func NewValidator() echo.Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

// Validate validates a bound request struct. Failures become validation
// errors naming the first offending field.
func (rv *requestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fieldPath(fe.Namespace())
		return errors.ValidationError(field, field+" failed "+fe.Tag()+" validation")
	}
	return errors.New(err).Component("api").Category(errors.CategoryValidation).Build()
}

// fieldPath drops the struct name and embedded struct names from a
// validator namespace, "ResultUpdateRequest.ResultRequest.label" becoming
// "label".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	kept := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 || (p != "" && unicode.IsUpper(rune(p[0]))) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return namespace
	}
	return strings.Join(kept, ".")
}
