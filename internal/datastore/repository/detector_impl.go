package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

type detectorRepository struct {
	db *gorm.DB
}

// NewDetectorRepository creates a new DetectorRepository.
func NewDetectorRepository(db *gorm.DB) DetectorRepository {
	return &detectorRepository{db: db}
}

func (r *detectorRepository) GetOrCreate(ctx context.Context, name string) (*entities.Detector, error) {
	return getOrCreate(ctx, r.db,
		func() *entities.Detector { return &entities.Detector{Name: name} },
		"name = ?", name)
}

func (r *detectorRepository) GetOrCreateConfiguration(ctx context.Context, detectorID uint, configuration string) (*entities.DetectorConfiguration, error) {
	return getOrCreate(ctx, r.db,
		func() *entities.DetectorConfiguration {
			return &entities.DetectorConfiguration{DetectorID: detectorID, Configuration: configuration}
		},
		"detector_id = ? AND configuration = ?", detectorID, configuration)
}

func (r *detectorRepository) GetConfiguration(ctx context.Context, id uint) (*entities.DetectorConfiguration, error) {
	var cfg entities.DetectorConfiguration
	err := r.db.WithContext(ctx).Preload("Detector").First(&cfg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDetectorConfigurationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
