package entities

import "time"

// ResultType is the geometric granularity of an annotation result.
type ResultType string

const (
	// ResultWeak labels the whole file; no bounds are stored.
	ResultWeak ResultType = "WEAK"
	// ResultPoint marks one time/frequency coordinate.
	ResultPoint ResultType = "POINT"
	// ResultBox is a time/frequency rectangle with ordered bounds.
	ResultBox ResultType = "BOX"
)

// Valid reports whether t is one of the known result types.
func (t ResultType) Valid() bool {
	switch t {
	case ResultWeak, ResultPoint, ResultBox:
		return true
	default:
		return false
	}
}

// AnnotationResult is one annotation of a dataset file within a campaign
// phase. Times are seconds from file start, frequencies are Hz.
// Which bounds are set depends on Type.
type AnnotationResult struct {
	ID                        uint       `gorm:"primaryKey"`
	Type                      ResultType `gorm:"type:varchar(8);not null"`
	StartTime                 *float64
	EndTime                   *float64
	StartFrequency            *float64
	EndFrequency              *float64
	AnnotationCampaignPhaseID uint      `gorm:"not null;index:idx_result_identity,priority:1"`
	DatasetFileID             uint      `gorm:"not null;index:idx_result_identity,priority:2"`
	LabelID                   uint      `gorm:"not null;index:idx_result_identity,priority:3"`
	DetectorConfigurationID   *uint     `gorm:"index"`
	ConfidenceIndicatorID     *uint     `gorm:"index"`
	AnnotatorID               *uint     `gorm:"index"` // user id, nil for detector output
	IsUpdateOfID              *uint     `gorm:"index"`
	CreatedAt                 time.Time `gorm:"autoCreateTime;<-:create"`

	AnnotationCampaignPhase *AnnotationCampaignPhase          `gorm:"foreignKey:AnnotationCampaignPhaseID"`
	DatasetFile             *DatasetFile                      `gorm:"foreignKey:DatasetFileID"`
	Label                   *Label                            `gorm:"foreignKey:LabelID"`
	DetectorConfiguration   *DetectorConfiguration            `gorm:"foreignKey:DetectorConfigurationID"`
	ConfidenceIndicator     *ConfidenceIndicator              `gorm:"foreignKey:ConfidenceIndicatorID"`
	IsUpdateOf              *AnnotationResult                 `gorm:"foreignKey:IsUpdateOfID"`
	Comments                []AnnotationComment               `gorm:"foreignKey:AnnotationResultID"`
	Validations             []AnnotationResultValidation      `gorm:"foreignKey:AnnotationResultID"`
	AcousticFeatures        *AnnotationResultAcousticFeatures `gorm:"foreignKey:AnnotationResultID"`
}

// TableName returns the table name for GORM.
func (AnnotationResult) TableName() string {
	return "annotation_results"
}

// AnnotationComment is free text attached to a result.
type AnnotationComment struct {
	ID                 uint      `gorm:"primaryKey"`
	AnnotationResultID uint      `gorm:"not null;index"`
	AuthorID           uint      `gorm:"not null"`
	Comment            string    `gorm:"type:text;not null"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (AnnotationComment) TableName() string {
	return "annotation_comments"
}

// AnnotationResultValidation records one annotator's verdict on a result,
// typically given during a verification phase.
type AnnotationResultValidation struct {
	ID                 uint      `gorm:"primaryKey"`
	AnnotationResultID uint      `gorm:"not null;uniqueIndex:idx_result_validation"`
	AnnotatorID        uint      `gorm:"not null;uniqueIndex:idx_result_validation"`
	IsValid            bool      `gorm:"not null"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (AnnotationResultValidation) TableName() string {
	return "annotation_result_validations"
}

// SignalTrend describes the overall frequency contour of a call.
type SignalTrend string

const (
	TrendFlat       SignalTrend = "flat"
	TrendAscending  SignalTrend = "ascending"
	TrendDescending SignalTrend = "descending"
	TrendModulated  SignalTrend = "modulated"
)

// Valid reports whether t is a known trend.
func (t SignalTrend) Valid() bool {
	switch t {
	case TrendFlat, TrendAscending, TrendDescending, TrendModulated:
		return true
	}
	return false
}

// AnnotationResultAcousticFeatures holds optional measurements an annotator
// made on a box result.
type AnnotationResultAcousticFeatures struct {
	ID                        uint `gorm:"primaryKey"`
	AnnotationResultID        uint `gorm:"not null;uniqueIndex"`
	StartFrequency            *float64
	EndFrequency              *float64
	RelativeMaxFrequencyCount *int
	RelativeMinFrequencyCount *int
	StepsCount                *int
	HasHarmonics              *bool
	Trend                     *SignalTrend `gorm:"type:varchar(16)"`
}

// TableName returns the table name for GORM.
func (AnnotationResultAcousticFeatures) TableName() string {
	return "annotation_result_acoustic_features"
}

// All returns every entity for AutoMigrate, parents before children.
func All() []any {
	return []any{
		&Dataset{},
		&DatasetFile{},
		&Label{},
		&LabelSet{},
		&ConfidenceIndicator{},
		&ConfidenceIndicatorSet{},
		&ConfidenceIndicatorSetIndicator{},
		&AnnotationCampaign{},
		&AnnotationCampaignPhase{},
		&Detector{},
		&DetectorConfiguration{},
		&AnnotationResult{},
		&AnnotationComment{},
		&AnnotationResultValidation{},
		&AnnotationResultAcousticFeatures{},
	}
}
