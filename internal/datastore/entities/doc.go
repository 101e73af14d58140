// Package entities defines the GORM models of the annotation schema.
//
// Canonical vocabulary rows (Label, ConfidenceIndicator, Detector,
// DetectorConfiguration) carry unique indexes so that get-or-create races
// resolve to a single row. AnnotationResult uniqueness is advisory and is
// enforced by the result builder, not by the schema.
package entities
