package repository

import (
	"context"
	"time"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

// DatasetRepository looks up datasets and their files. Datasets are managed
// outside the annotation engine; Create and AddFile exist for seeding.
type DatasetRepository interface {
	Create(ctx context.Context, dataset *entities.Dataset) error
	AddFile(ctx context.Context, file *entities.DatasetFile) error

	GetByID(ctx context.Context, id uint) (*entities.Dataset, error)
	GetByName(ctx context.Context, name string) (*entities.Dataset, error)

	// GetFile returns a file with its Dataset loaded.
	GetFile(ctx context.Context, id uint) (*entities.DatasetFile, error)

	// FilesMatchingTimeRange returns the files of a dataset overlapping
	// [start, end], ordered by start. An instant (start == end) matches the
	// file containing it; a span touching a file only at its start does not
	// match that file.
	FilesMatchingTimeRange(ctx context.Context, datasetID uint, start, end time.Time) ([]entities.DatasetFile, error)
}
