package repository

import (
	"context"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

// ResultRepository persists annotation results and their sub-records.
type ResultRepository interface {
	// Create inserts the base fields of result; associations are not saved.
	Create(ctx context.Context, result *entities.AnnotationResult) error

	// Update rewrites the base fields of an existing result. CreatedAt is
	// never written. Nil bounds are stored as NULL.
	Update(ctx context.Context, result *entities.AnnotationResult) error

	// GetByID returns a result with its vocabulary rows, comments,
	// validations and acoustic features loaded.
	GetByID(ctx context.Context, id uint) (*entities.AnnotationResult, error)

	// FindDuplicate returns an existing result of the same phase, file,
	// label, detector configuration, confidence indicator, type and bounds,
	// comparing NULLs as equal. Returns ErrResultNotFound when none exists.
	FindDuplicate(ctx context.Context, candidate *entities.AnnotationResult) (*entities.AnnotationResult, error)

	// ListUpdatedTo returns the results declaring id as their predecessor.
	ListUpdatedTo(ctx context.Context, id uint) ([]*entities.AnnotationResult, error)

	CountByPhase(ctx context.Context, phaseID uint) (int64, error)

	ReplaceComments(ctx context.Context, resultID uint, comments []entities.AnnotationComment) error
	ReplaceValidations(ctx context.Context, resultID uint, validations []entities.AnnotationResultValidation) error

	// SaveAcousticFeatures inserts or replaces the features of a result.
	SaveAcousticFeatures(ctx context.Context, features *entities.AnnotationResultAcousticFeatures) error
	DeleteAcousticFeatures(ctx context.Context, resultID uint) error
}
