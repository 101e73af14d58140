package entities

import "time"

// PhaseType names a stage of an annotation campaign.
type PhaseType string

const (
	PhaseAnnotation   PhaseType = "annotation"
	PhaseVerification PhaseType = "verification"
)

// AnnotationCampaign groups phases and points at the vocabularies its
// annotators use. The referenced sets may be shared with other campaigns.
type AnnotationCampaign struct {
	ID                       uint      `gorm:"primaryKey"`
	Name                     string    `gorm:"size:255;not null;uniqueIndex"`
	LabelSetID               *uint     `gorm:"index"`
	ConfidenceIndicatorSetID *uint     `gorm:"index"`
	AllowPointAnnotation     bool      `gorm:"not null;default:false"`
	CreatedAt                time.Time `gorm:"autoCreateTime"`

	LabelSet               *LabelSet                 `gorm:"foreignKey:LabelSetID"`
	ConfidenceIndicatorSet *ConfidenceIndicatorSet   `gorm:"foreignKey:ConfidenceIndicatorSetID"`
	Phases                 []AnnotationCampaignPhase `gorm:"foreignKey:AnnotationCampaignID"`
}

// TableName returns the table name for GORM.
func (AnnotationCampaign) TableName() string {
	return "annotation_campaigns"
}

// AnnotationCampaignPhase scopes results to one stage of a campaign.
type AnnotationCampaignPhase struct {
	ID                   uint      `gorm:"primaryKey"`
	AnnotationCampaignID uint      `gorm:"not null;uniqueIndex:idx_campaign_phase"`
	Phase                PhaseType `gorm:"type:varchar(20);not null;uniqueIndex:idx_campaign_phase"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`

	AnnotationCampaign *AnnotationCampaign `gorm:"foreignKey:AnnotationCampaignID"`
}

// TableName returns the table name for GORM.
func (AnnotationCampaignPhase) TableName() string {
	return "annotation_campaign_phases"
}
