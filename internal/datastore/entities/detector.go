package entities

// Detector is a canonical automated detector identity.
type Detector struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null;uniqueIndex"`
}

// TableName returns the table name for GORM.
func (Detector) TableName() string {
	return "detectors"
}

// DetectorConfiguration is one parameterization of a detector, identified by
// its free-text configuration payload.
type DetectorConfiguration struct {
	ID            uint   `gorm:"primaryKey"`
	DetectorID    uint   `gorm:"not null;uniqueIndex:idx_detector_configuration,priority:1"`
	Configuration string `gorm:"size:1024;not null;uniqueIndex:idx_detector_configuration,priority:2"`

	Detector *Detector `gorm:"foreignKey:DetectorID"`
}

// TableName returns the table name for GORM.
func (DetectorConfiguration) TableName() string {
	return "detector_configurations"
}
