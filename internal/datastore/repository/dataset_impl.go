package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

type datasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository creates a new DatasetRepository.
func NewDatasetRepository(db *gorm.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

func (r *datasetRepository) Create(ctx context.Context, dataset *entities.Dataset) error {
	return r.db.WithContext(ctx).Omit("Files").Create(dataset).Error
}

// AddFile stores file with its bounds in UTC so range comparisons stay
// consistent on SQLite, which compares timestamps as text.
func (r *datasetRepository) AddFile(ctx context.Context, file *entities.DatasetFile) error {
	file.Start = file.Start.UTC()
	file.End = file.End.UTC()
	return r.db.WithContext(ctx).Omit("Dataset").Create(file).Error
}

func (r *datasetRepository) GetByID(ctx context.Context, id uint) (*entities.Dataset, error) {
	var dataset entities.Dataset
	err := r.db.WithContext(ctx).First(&dataset, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (r *datasetRepository) GetByName(ctx context.Context, name string) (*entities.Dataset, error) {
	var dataset entities.Dataset
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&dataset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (r *datasetRepository) GetFile(ctx context.Context, id uint) (*entities.DatasetFile, error) {
	var file entities.DatasetFile
	err := r.db.WithContext(ctx).Preload("Dataset").First(&file, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDatasetFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *datasetRepository) FilesMatchingTimeRange(ctx context.Context, datasetID uint, start, end time.Time) ([]entities.DatasetFile, error) {
	var candidates []entities.DatasetFile
	err := r.db.WithContext(ctx).
		Where("dataset_id = ? AND start_at <= ? AND end_at >= ?", datasetID, end.UTC(), start.UTC()).
		Order("start_at ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	files := candidates[:0]
	for i := range candidates {
		f := candidates[i]
		if start.Equal(end) {
			// an instant on a shared boundary belongs to the later file
			if f.End.Equal(start) && i+1 < len(candidates) && candidates[i+1].Start.Equal(start) {
				continue
			}
			files = append(files, f)
			continue
		}
		// spans only touching a file boundary do not overlap it
		if f.Start.Equal(end) || f.End.Equal(start) {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}
