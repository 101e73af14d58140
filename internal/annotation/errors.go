package annotation

import (
	"fmt"

	"github.com/soundscape-lab/annotator/internal/errors"
)

const componentAnnotation = "annotation"

// validationError reports bad input for one field.
func validationError(field, format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(componentAnnotation).
		Category(errors.CategoryValidation).
		Context(errors.ContextField, field).
		Build()
}

func notFoundError(entity string, key any) error {
	return errors.Newf("%s %v not found", entity, key).
		Component(componentAnnotation).
		Category(errors.CategoryNotFound).
		Context("entity", entity).
		Build()
}

// dbError wraps a persistence failure. The transaction rolls back and the
// error is reported when a reporter is active.
func dbError(op string, err error) error {
	if errors.CategoryOf(err) != errors.CategoryGeneric {
		return err
	}
	return errors.New(fmt.Errorf("%s: %w", op, err)).
		Component(componentAnnotation).
		Category(errors.CategoryDatabase).
		Context("operation", op).
		Build()
}
