package entities

import "time"

// DatasetFile is one time-bounded audio unit of a dataset.
type DatasetFile struct {
	ID        uint      `gorm:"primaryKey"`
	DatasetID uint      `gorm:"not null;index:idx_dataset_file_range,priority:1"`
	Filename  string    `gorm:"size:255;not null"`
	Start     time.Time `gorm:"column:start_at;not null;index:idx_dataset_file_range,priority:2"`
	End       time.Time `gorm:"column:end_at;not null;index:idx_dataset_file_range,priority:3"`

	Dataset *Dataset `gorm:"foreignKey:DatasetID"`
}

// TableName returns the table name for GORM.
func (DatasetFile) TableName() string {
	return "dataset_files"
}

// Duration returns the file length in seconds.
func (f *DatasetFile) Duration() float64 {
	return f.End.Sub(f.Start).Seconds()
}

// Contains reports whether t falls within [Start, End].
func (f *DatasetFile) Contains(t time.Time) bool {
	return !t.Before(f.Start) && !t.After(f.End)
}
