package repository

import (
	"context"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

// DetectorRepository manages canonical detectors and their configurations.
type DetectorRepository interface {
	GetOrCreate(ctx context.Context, name string) (*entities.Detector, error)
	GetOrCreateConfiguration(ctx context.Context, detectorID uint, configuration string) (*entities.DetectorConfiguration, error)

	// GetConfiguration returns a configuration with its Detector loaded.
	GetConfiguration(ctx context.Context, id uint) (*entities.DetectorConfiguration, error)
}
