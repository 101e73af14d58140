package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/soundscape-lab/annotator/internal/logger"
)

// NewTestStore returns a migrated Store on a private in-memory SQLite
// database that is closed when the test ends.
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	// one connection keeps every query on the same in-memory database
	store, err := OpenDialector(sqlite.Open("file::memory:?_foreign_keys=ON"), logger.Discard(), 0)
	require.NoError(t, err)

	sqlDB, err := store.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}
