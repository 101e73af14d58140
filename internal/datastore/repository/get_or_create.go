package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// getOrCreate returns the row matched by where, inserting fresh() when none
// exists. If the insert fails because a concurrent writer won the race on the
// unique index, the winner's row is re-read and returned; any other insert
// failure is returned as is.
func getOrCreate[T any](ctx context.Context, db *gorm.DB, fresh func() *T, where string, args ...any) (*T, error) {
	var row T
	err := db.WithContext(ctx).Where(where, args...).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := fresh()
	createErr := db.WithContext(ctx).Create(created).Error
	if createErr == nil {
		return created, nil
	}

	var existing T
	if findErr := db.WithContext(ctx).Where(where, args...).First(&existing).Error; findErr != nil {
		return nil, createErr
	}
	return &existing, nil
}
