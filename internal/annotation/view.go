package annotation

import (
	"time"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

// ResultView is the serialized form of a result with its successors.
type ResultView struct {
	ID                      uint                  `json:"id"`
	Type                    entities.ResultType   `json:"type"`
	StartTime               *float64              `json:"start_time"`
	EndTime                 *float64              `json:"end_time"`
	StartFrequency          *float64              `json:"start_frequency"`
	EndFrequency            *float64              `json:"end_frequency"`
	AnnotationCampaignPhase uint                  `json:"annotation_campaign_phase"`
	DatasetFile             uint                  `json:"dataset_file"`
	Label                   string                `json:"label"`
	ConfidenceIndicator     *ConfidenceView       `json:"confidence_indicator"`
	DetectorConfiguration   *DetectorView         `json:"detector_configuration"`
	Annotator               *uint                 `json:"annotator"`
	IsUpdateOf              *uint                 `json:"is_update_of"`
	CreatedAt               time.Time             `json:"created_at"`
	Comments                []CommentView         `json:"comments"`
	Validations             []ValidationView      `json:"validations"`
	AcousticFeatures        *AcousticFeaturesView `json:"acoustic_features"`
	UpdatedTo               []ResultView          `json:"updated_to"`
}

// ConfidenceView is a confidence indicator.
type ConfidenceView struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
	Level int    `json:"level"`
}

// DetectorView is a detector configuration with its detector name.
type DetectorView struct {
	ID            uint   `json:"id"`
	Detector      string `json:"detector"`
	Configuration string `json:"configuration"`
}

// CommentView is a comment on a result.
type CommentView struct {
	ID        uint      `json:"id"`
	Author    uint      `json:"author"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidationView is one annotator's verdict on a result.
type ValidationView struct {
	ID        uint `json:"id"`
	Annotator uint `json:"annotator"`
	IsValid   bool `json:"is_valid"`
}

// AcousticFeaturesView describes the signal of a box result.
type AcousticFeaturesView struct {
	StartFrequency            *float64              `json:"start_frequency"`
	EndFrequency              *float64              `json:"end_frequency"`
	RelativeMaxFrequencyCount *int                  `json:"relative_max_frequency_count"`
	RelativeMinFrequencyCount *int                  `json:"relative_min_frequency_count"`
	StepsCount                *int                  `json:"steps_count"`
	HasHarmonics              *bool                 `json:"has_harmonics"`
	Trend                     *entities.SignalTrend `json:"trend"`
}

// NewResultView converts a loaded result. Associations that are not loaded
// are rendered empty; UpdatedTo is left for Lineage.Chain to fill.
func NewResultView(r *entities.AnnotationResult) ResultView {
	v := ResultView{
		ID:                      r.ID,
		Type:                    r.Type,
		StartTime:               r.StartTime,
		EndTime:                 r.EndTime,
		StartFrequency:          r.StartFrequency,
		EndFrequency:            r.EndFrequency,
		AnnotationCampaignPhase: r.AnnotationCampaignPhaseID,
		DatasetFile:             r.DatasetFileID,
		Annotator:               r.AnnotatorID,
		IsUpdateOf:              r.IsUpdateOfID,
		CreatedAt:               r.CreatedAt,
		Comments:                make([]CommentView, 0, len(r.Comments)),
		Validations:             make([]ValidationView, 0, len(r.Validations)),
		UpdatedTo:               []ResultView{},
	}
	if r.Label != nil {
		v.Label = r.Label.Name
	}
	if ci := r.ConfidenceIndicator; ci != nil {
		v.ConfidenceIndicator = &ConfidenceView{ID: ci.ID, Label: ci.Label, Level: ci.Level}
	}
	if dc := r.DetectorConfiguration; dc != nil {
		v.DetectorConfiguration = &DetectorView{ID: dc.ID, Configuration: dc.Configuration}
		if dc.Detector != nil {
			v.DetectorConfiguration.Detector = dc.Detector.Name
		}
	}
	for _, c := range r.Comments {
		v.Comments = append(v.Comments, CommentView{ID: c.ID, Author: c.AuthorID, Comment: c.Comment, CreatedAt: c.CreatedAt})
	}
	for _, val := range r.Validations {
		v.Validations = append(v.Validations, ValidationView{ID: val.ID, Annotator: val.AnnotatorID, IsValid: val.IsValid})
	}
	if f := r.AcousticFeatures; f != nil {
		v.AcousticFeatures = &AcousticFeaturesView{
			StartFrequency:            f.StartFrequency,
			EndFrequency:              f.EndFrequency,
			RelativeMaxFrequencyCount: f.RelativeMaxFrequencyCount,
			RelativeMinFrequencyCount: f.RelativeMinFrequencyCount,
			StepsCount:                f.StepsCount,
			HasHarmonics:              f.HasHarmonics,
			Trend:                     f.Trend,
		}
	}
	return v
}
