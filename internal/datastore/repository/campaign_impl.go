package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new CampaignRepository.
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *entities.AnnotationCampaign) error {
	return r.db.WithContext(ctx).Omit("LabelSet", "ConfidenceIndicatorSet", "Phases").Create(campaign).Error
}

func (r *campaignRepository) CreatePhase(ctx context.Context, phase *entities.AnnotationCampaignPhase) error {
	return r.db.WithContext(ctx).Omit("AnnotationCampaign").Create(phase).Error
}

func (r *campaignRepository) GetByID(ctx context.Context, id uint) (*entities.AnnotationCampaign, error) {
	var campaign entities.AnnotationCampaign
	err := r.db.WithContext(ctx).First(&campaign, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) GetPhase(ctx context.Context, id uint) (*entities.AnnotationCampaignPhase, error) {
	var phase entities.AnnotationCampaignPhase
	err := r.db.WithContext(ctx).Preload("AnnotationCampaign").First(&phase, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPhaseNotFound
	}
	if err != nil {
		return nil, err
	}
	if phase.AnnotationCampaign == nil {
		return nil, ErrCampaignNotFound
	}
	return &phase, nil
}

func (r *campaignRepository) CountByLabelSet(ctx context.Context, labelSetID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.AnnotationCampaign{}).
		Where("label_set_id = ?", labelSetID).
		Count(&count).Error
	return count, err
}

func (r *campaignRepository) CountByConfidenceSet(ctx context.Context, setID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.AnnotationCampaign{}).
		Where("confidence_indicator_set_id = ?", setID).
		Count(&count).Error
	return count, err
}

func (r *campaignRepository) SetLabelSet(ctx context.Context, campaignID, labelSetID uint) error {
	return r.updateColumn(ctx, campaignID, "label_set_id", labelSetID)
}

func (r *campaignRepository) SetConfidenceSet(ctx context.Context, campaignID, setID uint) error {
	return r.updateColumn(ctx, campaignID, "confidence_indicator_set_id", setID)
}

func (r *campaignRepository) updateColumn(ctx context.Context, campaignID uint, column string, value uint) error {
	result := r.db.WithContext(ctx).Model(&entities.AnnotationCampaign{}).
		Where("id = ?", campaignID).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}
