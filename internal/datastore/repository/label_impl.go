package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

type labelRepository struct {
	db *gorm.DB
}

// NewLabelRepository creates a new LabelRepository.
func NewLabelRepository(db *gorm.DB) LabelRepository {
	return &labelRepository{db: db}
}

func (r *labelRepository) GetOrCreate(ctx context.Context, name string) (*entities.Label, error) {
	return getOrCreate(ctx, r.db,
		func() *entities.Label { return &entities.Label{Name: name} },
		"name = ?", name)
}

func (r *labelRepository) GetByID(ctx context.Context, id uint) (*entities.Label, error) {
	var label entities.Label
	err := r.db.WithContext(ctx).First(&label, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLabelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &label, nil
}

func (r *labelRepository) GetByName(ctx context.Context, name string) (*entities.Label, error) {
	var label entities.Label
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&label).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLabelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &label, nil
}

type labelSetRepository struct {
	db *gorm.DB
}

// NewLabelSetRepository creates a new LabelSetRepository.
func NewLabelSetRepository(db *gorm.DB) LabelSetRepository {
	return &labelSetRepository{db: db}
}

func (r *labelSetRepository) Create(ctx context.Context, set *entities.LabelSet) error {
	// Labels.* skips upserting the label rows; only join rows are written
	return r.db.WithContext(ctx).Omit("Labels.*").Create(set).Error
}

func (r *labelSetRepository) GetByID(ctx context.Context, id uint) (*entities.LabelSet, error) {
	var set entities.LabelSet
	err := r.db.WithContext(ctx).
		Preload("Labels", func(db *gorm.DB) *gorm.DB { return db.Order("labels.id ASC") }).
		First(&set, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLabelSetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *labelSetRepository) Lock(ctx context.Context, id uint) error {
	var set entities.LabelSet
	err := forUpdate(r.db.WithContext(ctx)).First(&set, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLabelSetNotFound
	}
	return err
}

func (r *labelSetRepository) Contains(ctx context.Context, setID, labelID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(tableLabelSetLabels).
		Where("label_set_id = ? AND label_id = ?", setID, labelID).
		Count(&count).Error
	return count > 0, err
}

func (r *labelSetRepository) AddLabel(ctx context.Context, setID, labelID uint) error {
	return r.db.WithContext(ctx).Table(tableLabelSetLabels).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"label_set_id": setID, "label_id": labelID}).Error
}

func (r *labelSetRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.LabelSet{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}
