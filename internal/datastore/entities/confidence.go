package entities

// ConfidenceIndicator is a (label, level) pair expressing certainty,
// e.g. ("confident", 2).
type ConfidenceIndicator struct {
	ID    uint   `gorm:"primaryKey"`
	Label string `gorm:"size:255;not null;uniqueIndex:idx_confidence_identity"`
	Level int    `gorm:"not null;uniqueIndex:idx_confidence_identity"`
}

// TableName returns the table name for GORM.
func (ConfidenceIndicator) TableName() string {
	return "confidence_indicators"
}

// ConfidenceIndicatorSet is a named collection of indicators. Membership
// lives in ConfidenceIndicatorSetIndicator so it can carry the default flag.
type ConfidenceIndicatorSet struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null;uniqueIndex"`
	Description string `gorm:"type:text"`

	Memberships []ConfidenceIndicatorSetIndicator `gorm:"foreignKey:ConfidenceIndicatorSetID"`
}

// TableName returns the table name for GORM.
func (ConfidenceIndicatorSet) TableName() string {
	return "confidence_indicator_sets"
}

// MaxLevel returns the highest level among loaded memberships, or 0.
func (s *ConfidenceIndicatorSet) MaxLevel() int {
	maxLevel := 0
	for i := range s.Memberships {
		if ind := s.Memberships[i].ConfidenceIndicator; ind != nil && ind.Level > maxLevel {
			maxLevel = ind.Level
		}
	}
	return maxLevel
}

// ConfidenceIndicatorSetIndicator is the membership of an indicator in a set.
// At most one membership per set has IsDefault set; the resolver keeps that.
type ConfidenceIndicatorSetIndicator struct {
	ID                       uint `gorm:"primaryKey"`
	ConfidenceIndicatorID    uint `gorm:"not null;uniqueIndex:idx_set_indicator"`
	ConfidenceIndicatorSetID uint `gorm:"not null;uniqueIndex:idx_set_indicator;index"`
	IsDefault                bool `gorm:"not null;default:false"`

	ConfidenceIndicator *ConfidenceIndicator `gorm:"foreignKey:ConfidenceIndicatorID"`
}

// TableName returns the table name for GORM.
func (ConfidenceIndicatorSetIndicator) TableName() string {
	return "confidence_indicator_set_indicators"
}
