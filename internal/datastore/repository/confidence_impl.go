package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

type confidenceRepository struct {
	db *gorm.DB
}

// NewConfidenceRepository creates a new ConfidenceRepository.
func NewConfidenceRepository(db *gorm.DB) ConfidenceRepository {
	return &confidenceRepository{db: db}
}

func (r *confidenceRepository) GetOrCreateIndicator(ctx context.Context, label string, level int) (*entities.ConfidenceIndicator, error) {
	return getOrCreate(ctx, r.db,
		func() *entities.ConfidenceIndicator {
			return &entities.ConfidenceIndicator{Label: label, Level: level}
		},
		"label = ? AND level = ?", label, level)
}

func (r *confidenceRepository) CreateSet(ctx context.Context, set *entities.ConfidenceIndicatorSet) error {
	if err := r.db.WithContext(ctx).Omit("Memberships").Create(set).Error; err != nil {
		return err
	}
	for i := range set.Memberships {
		set.Memberships[i].ConfidenceIndicatorSetID = set.ID
		if err := r.AddMembership(ctx, &set.Memberships[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *confidenceRepository) GetSet(ctx context.Context, id uint) (*entities.ConfidenceIndicatorSet, error) {
	var set entities.ConfidenceIndicatorSet
	err := r.db.WithContext(ctx).
		Preload("Memberships", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Memberships.ConfidenceIndicator").
		First(&set, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConfidenceSetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *confidenceRepository) LockSet(ctx context.Context, id uint) error {
	var set entities.ConfidenceIndicatorSet
	err := forUpdate(r.db.WithContext(ctx)).First(&set, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConfidenceSetNotFound
	}
	return err
}

func (r *confidenceRepository) Membership(ctx context.Context, setID, indicatorID uint) (*entities.ConfidenceIndicatorSetIndicator, error) {
	var m entities.ConfidenceIndicatorSetIndicator
	err := r.db.WithContext(ctx).
		Where("confidence_indicator_set_id = ? AND confidence_indicator_id = ?", setID, indicatorID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *confidenceRepository) AddMembership(ctx context.Context, m *entities.ConfidenceIndicatorSetIndicator) error {
	return r.db.WithContext(ctx).Omit("ConfidenceIndicator").Create(m).Error
}

// SetDefault makes indicatorID the only default of the set.
func (r *confidenceRepository) SetDefault(ctx context.Context, setID, indicatorID uint) error {
	db := r.db.WithContext(ctx).Model(&entities.ConfidenceIndicatorSetIndicator{})
	if err := db.Where("confidence_indicator_set_id = ? AND is_default = ?", setID, true).
		Update("is_default", false).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&entities.ConfidenceIndicatorSetIndicator{}).
		Where("confidence_indicator_set_id = ? AND confidence_indicator_id = ?", setID, indicatorID).
		Update("is_default", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func (r *confidenceRepository) SetNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.ConfidenceIndicatorSet{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}
