package conf

import (
	"fmt"
	"slices"
	"strings"

	"github.com/soundscape-lab/annotator/internal/errors"
)

// ValidationError collects every settings problem found in one pass
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateDatabaseSettings(&settings.Database); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateAnnotationSettings(&settings.Annotation); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if settings.Telemetry.Enabled && settings.Telemetry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry is enabled but no DSN is set")
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

func validateDatabaseSettings(d *DatabaseSettings) error {
	if !slices.Contains([]string{DatabaseSQLite, DatabaseMySQL}, d.Type) {
		return fmt.Errorf("database type must be %q or %q, got %q", DatabaseSQLite, DatabaseMySQL, d.Type)
	}
	if d.Type == DatabaseSQLite && d.Path == "" {
		return fmt.Errorf("database path is required for sqlite")
	}
	if d.Type == DatabaseMySQL {
		if d.Host == "" || d.Database == "" {
			return fmt.Errorf("database host and name are required for mysql")
		}
		if d.Port <= 0 || d.Port > 65535 {
			return fmt.Errorf("database port %d out of range", d.Port)
		}
	}
	if d.MaxOpenConns < 1 {
		return fmt.Errorf("database maxopenconns must be at least 1")
	}
	return nil
}

func validateWebServerSettings(w *WebServerSettings) error {
	if !w.Enabled {
		return nil
	}
	if w.Port <= 0 || w.Port > 65535 {
		return fmt.Errorf("webserver port %d out of range", w.Port)
	}
	return nil
}

func validateAnnotationSettings(a *AnnotationSettings) error {
	if a.MaxNameProbes < 1 {
		return fmt.Errorf("annotation maxnameprobes must be at least 1")
	}
	if a.MaxLineageDepth < 1 {
		return fmt.Errorf("annotation maxlineagedepth must be at least 1")
	}
	if a.DatasetCacheTTL < 0 {
		return fmt.Errorf("annotation datasetcachettl cannot be negative")
	}
	return nil
}
