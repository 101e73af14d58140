package repository

import "github.com/soundscape-lab/annotator/internal/errors"

// Sentinel errors for repository operations.
var (
	// ErrDatasetNotFound indicates the requested dataset does not exist.
	ErrDatasetNotFound = errors.NewStd("dataset not found")

	// ErrDatasetFileNotFound indicates the requested dataset file does not exist.
	ErrDatasetFileNotFound = errors.NewStd("dataset file not found")

	// ErrCampaignNotFound indicates the requested campaign does not exist.
	ErrCampaignNotFound = errors.NewStd("annotation campaign not found")

	// ErrPhaseNotFound indicates the requested campaign phase does not exist.
	ErrPhaseNotFound = errors.NewStd("annotation campaign phase not found")

	// ErrLabelNotFound indicates the requested label does not exist.
	ErrLabelNotFound = errors.NewStd("label not found")

	// ErrLabelSetNotFound indicates the requested label set does not exist.
	ErrLabelSetNotFound = errors.NewStd("label set not found")

	// ErrConfidenceSetNotFound indicates the requested confidence indicator set does not exist.
	ErrConfidenceSetNotFound = errors.NewStd("confidence indicator set not found")

	// ErrMembershipNotFound indicates the indicator is not part of the set.
	ErrMembershipNotFound = errors.NewStd("confidence indicator not in set")

	// ErrDetectorConfigurationNotFound indicates the requested detector configuration does not exist.
	ErrDetectorConfigurationNotFound = errors.NewStd("detector configuration not found")

	// ErrResultNotFound indicates the requested annotation result does not exist.
	ErrResultNotFound = errors.NewStd("annotation result not found")
)
