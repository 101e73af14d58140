package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// resultBaseColumns are the columns written by Update.
var resultBaseColumns = []string{
	"type",
	"start_time", "end_time", "start_frequency", "end_frequency",
	"annotation_campaign_phase_id", "dataset_file_id", "label_id",
	"detector_configuration_id", "confidence_indicator_id",
	"annotator_id", "is_update_of_id",
}

func (r *resultRepository) Create(ctx context.Context, result *entities.AnnotationResult) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(result).Error
}

func (r *resultRepository) Update(ctx context.Context, result *entities.AnnotationResult) error {
	tx := r.db.WithContext(ctx).Model(result).
		Select(resultBaseColumns).
		Omit(clause.Associations).
		Updates(result)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrResultNotFound
	}
	return nil
}

func (r *resultRepository) GetByID(ctx context.Context, id uint) (*entities.AnnotationResult, error) {
	var result entities.AnnotationResult
	err := r.db.WithContext(ctx).
		Preload("Label").
		Preload("ConfidenceIndicator").
		Preload("DetectorConfiguration.Detector").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Validations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("AcousticFeatures").
		First(&result, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepository) FindDuplicate(ctx context.Context, candidate *entities.AnnotationResult) (*entities.AnnotationResult, error) {
	q := r.db.WithContext(ctx).
		Where("annotation_campaign_phase_id = ? AND dataset_file_id = ? AND label_id = ? AND type = ?",
			candidate.AnnotationCampaignPhaseID, candidate.DatasetFileID, candidate.LabelID, candidate.Type)
	q = whereNullableUint(q, "detector_configuration_id", candidate.DetectorConfigurationID)
	q = whereNullableUint(q, "confidence_indicator_id", candidate.ConfidenceIndicatorID)
	q = whereNullableFloat(q, "start_time", candidate.StartTime)
	q = whereNullableFloat(q, "end_time", candidate.EndTime)
	q = whereNullableFloat(q, "start_frequency", candidate.StartFrequency)
	q = whereNullableFloat(q, "end_frequency", candidate.EndFrequency)

	var existing entities.AnnotationResult
	err := q.Order("id ASC").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func whereNullableUint(q *gorm.DB, column string, v *uint) *gorm.DB {
	if v == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *v)
}

func whereNullableFloat(q *gorm.DB, column string, v *float64) *gorm.DB {
	if v == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *v)
}

func (r *resultRepository) ListUpdatedTo(ctx context.Context, id uint) ([]*entities.AnnotationResult, error) {
	var results []*entities.AnnotationResult
	err := r.db.WithContext(ctx).
		Preload("Label").
		Preload("ConfidenceIndicator").
		Where("is_update_of_id = ?", id).
		Order("id ASC").
		Find(&results).Error
	return results, err
}

func (r *resultRepository) CountByPhase(ctx context.Context, phaseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.AnnotationResult{}).
		Where("annotation_campaign_phase_id = ?", phaseID).
		Count(&count).Error
	return count, err
}

func (r *resultRepository) ReplaceComments(ctx context.Context, resultID uint, comments []entities.AnnotationComment) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("annotation_result_id = ?", resultID).Delete(&entities.AnnotationComment{}).Error; err != nil {
		return err
	}
	if len(comments) == 0 {
		return nil
	}
	for i := range comments {
		comments[i].ID = 0
		comments[i].AnnotationResultID = resultID
	}
	return db.Create(&comments).Error
}

func (r *resultRepository) ReplaceValidations(ctx context.Context, resultID uint, validations []entities.AnnotationResultValidation) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("annotation_result_id = ?", resultID).Delete(&entities.AnnotationResultValidation{}).Error; err != nil {
		return err
	}
	if len(validations) == 0 {
		return nil
	}
	for i := range validations {
		validations[i].ID = 0
		validations[i].AnnotationResultID = resultID
	}
	return db.Create(&validations).Error
}

func (r *resultRepository) SaveAcousticFeatures(ctx context.Context, features *entities.AnnotationResultAcousticFeatures) error {
	if err := r.DeleteAcousticFeatures(ctx, features.AnnotationResultID); err != nil {
		return err
	}
	features.ID = 0
	return r.db.WithContext(ctx).Create(features).Error
}

func (r *resultRepository) DeleteAcousticFeatures(ctx context.Context, resultID uint) error {
	return r.db.WithContext(ctx).
		Where("annotation_result_id = ?", resultID).
		Delete(&entities.AnnotationResultAcousticFeatures{}).Error
}
