package entities

import "time"

// Dataset is an externally managed collection of audio files sharing one
// sample rate.
type Dataset struct {
	ID         uint      `gorm:"primaryKey"`
	Name       string    `gorm:"size:255;not null;uniqueIndex"`
	SampleRate float64   `gorm:"not null"` // Hz
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	Files []DatasetFile `gorm:"foreignKey:DatasetID"`
}

// TableName returns the table name for GORM.
func (Dataset) TableName() string {
	return "datasets"
}

// Nyquist returns the highest representable frequency in Hz.
func (d *Dataset) Nyquist() float64 {
	return d.SampleRate / 2
}
