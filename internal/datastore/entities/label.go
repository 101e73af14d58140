package entities

// Label is a canonical vocabulary entry, e.g. "Humpback whale song".
type Label struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null;uniqueIndex"`
}

// TableName returns the table name for GORM.
func (Label) TableName() string {
	return "labels"
}

// LabelSet is a named collection of labels. Campaigns reference sets by
// foreign key, so one set may serve several campaigns.
type LabelSet struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:255;not null;uniqueIndex"`
	Description string  `gorm:"type:text"`
	Labels      []Label `gorm:"many2many:label_set_labels;joinForeignKey:LabelSetID;joinReferences:LabelID"`
}

// TableName returns the table name for GORM.
func (LabelSet) TableName() string {
	return "label_sets"
}
