// Package errors provides categorized errors for the annotator backend with
// optional reporting to Sentry.
//
// Errors are built fluently:
//
//	errors.New(err).
//	    Component("annotation").
//	    Category(errors.CategoryValidation).
//	    Context("field", "end_time").
//	    Build()
//
// The category drives HTTP status mapping in the API layer and decides
// whether an error is worth reporting.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// ErrorCategory represents the type of error for grouping and status mapping
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryDatabase      ErrorCategory = "database"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryFileParsing   ErrorCategory = "file-parsing"
	CategoryHTTP          ErrorCategory = "http-request"
	CategoryLimit         ErrorCategory = "limit"
	CategoryGeneric       ErrorCategory = "generic"
)

// ComponentUnknown is used when no component was given.
const ComponentUnknown = "unknown"

// Well-known context keys
const (
	// ContextField names the offending input field of a validation error
	ContextField = "field"
)

// EnhancedError wraps an error with category and context metadata
type EnhancedError struct {
	Err       error
	Component string
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time
	reported  bool
	mu        sync.RWMutex
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches another EnhancedError by category, otherwise defers to the
// wrapped error.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return Is(ee.Err, target)
}

// GetContext returns a copy of the error context
func (ee *EnhancedError) GetContext() map[string]any {
	ee.mu.RLock()
	defer ee.mu.RUnlock()

	if ee.Context == nil {
		return nil
	}
	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// Field returns the "field" context value of a validation error, or "".
func (ee *EnhancedError) Field() string {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	if s, ok := ee.Context[ContextField].(string); ok {
		return s
	}
	return ""
}

// MarkReported marks this error as reported
func (ee *EnhancedError) MarkReported() {
	ee.mu.Lock()
	defer ee.mu.Unlock()
	ee.reported = true
}

// IsReported returns whether this error has been reported
func (ee *EnhancedError) IsReported() bool {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	return ee.reported
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts building an enhanced error around err
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts building an enhanced error from a formatted message
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the EnhancedError and hands it to the active reporter.
// A wrapped EnhancedError passes its category on when none was set.
func (eb *ErrorBuilder) Build() *EnhancedError {
	if eb.category == "" {
		var inner *EnhancedError
		if As(eb.err, &inner) {
			eb.category = inner.Category
		} else {
			eb.category = CategoryGeneric
		}
	}
	if eb.component == "" {
		eb.component = ComponentUnknown
	}

	ee := &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}

	// a wrapped error that was already reported is not sent twice
	var inner *EnhancedError
	if As(eb.err, &inner) && inner.IsReported() {
		ee.MarkReported()
	}

	if hasActiveReporting.Load() {
		reportError(ee)
	}
	return ee
}

// ValidationError creates a validation error about one input field
func ValidationError(field, message string) *EnhancedError {
	b := New(NewStd(message)).Category(CategoryValidation)
	if field != "" {
		b = b.Context(ContextField, field)
	}
	return b.Build()
}

// NotFoundError creates a not-found error for an entity and its key
func NotFoundError(entity string, key any) *EnhancedError {
	return Newf("%s %v not found", entity, key).
		Category(CategoryNotFound).
		Context("entity", entity).
		Build()
}

// Standard library passthrough functions so this package can replace the
// standard errors package in imports.

// NewStd creates a new standard error
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's tree matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsCategory checks if an error is an EnhancedError with the specified category.
func IsCategory(err error, category ErrorCategory) bool {
	var enhancedErr *EnhancedError
	return As(err, &enhancedErr) && enhancedErr.Category == category
}

// IsNotFound checks if an error is an EnhancedError with CategoryNotFound.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}

// IsValidation checks if an error is an EnhancedError with CategoryValidation.
func IsValidation(err error) bool {
	return IsCategory(err, CategoryValidation)
}

// CategoryOf returns the category of the outermost EnhancedError in err's
// tree, or CategoryGeneric.
func CategoryOf(err error) ErrorCategory {
	var enhancedErr *EnhancedError
	if As(err, &enhancedErr) {
		return enhancedErr.Category
	}
	return CategoryGeneric
}
