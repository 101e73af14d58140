package repository

import (
	"context"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

// CampaignRepository reads campaigns and phases and repoints a campaign's
// vocabulary sets.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *entities.AnnotationCampaign) error
	CreatePhase(ctx context.Context, phase *entities.AnnotationCampaignPhase) error

	GetByID(ctx context.Context, id uint) (*entities.AnnotationCampaign, error)

	// GetPhase returns a phase with its AnnotationCampaign loaded.
	GetPhase(ctx context.Context, id uint) (*entities.AnnotationCampaignPhase, error)

	// CountByLabelSet returns how many campaigns reference the label set.
	CountByLabelSet(ctx context.Context, labelSetID uint) (int64, error)
	// CountByConfidenceSet returns how many campaigns reference the confidence set.
	CountByConfidenceSet(ctx context.Context, setID uint) (int64, error)

	SetLabelSet(ctx context.Context, campaignID, labelSetID uint) error
	SetConfidenceSet(ctx context.Context, campaignID, setID uint) error
}
