package repository

import "gorm.io/gorm"

// Set groups the repositories used by one unit of work. Build it from a
// transaction handle to run every query of the unit inside that transaction.
type Set struct {
	Datasets   DatasetRepository
	Campaigns  CampaignRepository
	Labels     LabelRepository
	LabelSets  LabelSetRepository
	Confidence ConfidenceRepository
	Detectors  DetectorRepository
	Results    ResultRepository
}

// NewSet creates every repository on db.
func NewSet(db *gorm.DB) *Set {
	return &Set{
		Datasets:   NewDatasetRepository(db),
		Campaigns:  NewCampaignRepository(db),
		Labels:     NewLabelRepository(db),
		LabelSets:  NewLabelSetRepository(db),
		Confidence: NewConfidenceRepository(db),
		Detectors:  NewDetectorRepository(db),
		Results:    NewResultRepository(db),
	}
}
