package repository

import (
	"context"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

// LabelRepository manages canonical labels.
type LabelRepository interface {
	// GetOrCreate returns the label with this exact name, creating it if needed.
	GetOrCreate(ctx context.Context, name string) (*entities.Label, error)
	GetByID(ctx context.Context, id uint) (*entities.Label, error)
	GetByName(ctx context.Context, name string) (*entities.Label, error)
}

// LabelSetRepository manages label sets and their membership.
type LabelSetRepository interface {
	// Create inserts the set and membership rows for set.Labels; the labels
	// themselves must already exist.
	Create(ctx context.Context, set *entities.LabelSet) error

	// GetByID returns a set with its Labels loaded.
	GetByID(ctx context.Context, id uint) (*entities.LabelSet, error)

	// Lock re-reads the set row under a write lock where the database supports it.
	Lock(ctx context.Context, id uint) error

	Contains(ctx context.Context, setID, labelID uint) (bool, error)
	AddLabel(ctx context.Context, setID, labelID uint) error
	NameExists(ctx context.Context, name string) (bool, error)
}
