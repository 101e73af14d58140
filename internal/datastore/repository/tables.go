package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Join table names not backed by an entity.
const (
	tableLabelSetLabels = "label_set_labels"
)

// dialectMySQL is the GORM dialector name of gorm.io/driver/mysql.
const dialectMySQL = "mysql"

// forUpdate adds SELECT ... FOR UPDATE on MySQL. SQLite has no row locks;
// its single-writer transactions already serialize the read-modify-write.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == dialectMySQL {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
