// Package datastore opens the annotation database and runs units of work in
// transactions.
package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/soundscape-lab/annotator/internal/conf"
	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/datastore/repository"
	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
	"github.com/soundscape-lab/annotator/internal/observability/metrics"
)

// Store owns the database handle.
type Store struct {
	db      *gorm.DB
	logger  logger.Logger
	metrics *metrics.DatastoreMetrics
}

// Open connects to the database selected by settings. Call Migrate before
// first use of a fresh database.
func Open(settings *conf.DatabaseSettings, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Discard()
	}

	var dialector gorm.Dialector
	switch settings.Type {
	case conf.DatabaseSQLite:
		if err := ensureDir(settings.Path); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(sqliteDSN(settings.Path))
	case conf.DatabaseMySQL:
		dialector = mysql.Open(settings.MySQLDSN())
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	store, err := OpenDialector(dialector, log, settings.SlowThreshold)
	if err != nil {
		return nil, err
	}

	sqlDB, err := store.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	maxOpen := settings.MaxOpenConns
	if settings.Type == conf.DatabaseSQLite {
		// one writer connection avoids SQLITE_BUSY inside transactions
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("database opened",
		logger.String("type", settings.Type),
		logger.Int("max_open_conns", maxOpen))
	return store, nil
}

// OpenDialector opens a Store on an arbitrary GORM dialector. Tests use it
// with an in-memory SQLite database.
func OpenDialector(dialector gorm.Dialector, log logger.Logger, slowThreshold time.Duration) (*Store, error) {
	if log == nil {
		log = logger.Discard()
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log, slowThreshold),
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return &Store{db: db, logger: log}, nil
}

// sqliteDSN enables WAL, a busy timeout and foreign keys.
func sqliteDSN(path string) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(fmt.Errorf("failed to create database directory: %w", err)).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("path", dir).
			Build()
	}
	return nil
}

// Migrate creates or updates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	start := time.Now()
	if err := s.db.WithContext(ctx).AutoMigrate(entities.All()...); err != nil {
		return errors.New(fmt.Errorf("failed to migrate schema: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	s.logger.Info("schema migrated", logger.Duration("elapsed", time.Since(start)))
	return nil
}

// Repositories returns repositories bound to the base connection, for reads
// outside a transaction.
func (s *Store) Repositories() *repository.Set {
	return repository.NewSet(s.db)
}

// SetMetrics enables transaction and connection pool metrics.
func (s *Store) SetMetrics(m *metrics.DatastoreMetrics) {
	s.metrics = m
}

// Transaction runs fn with repositories bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(repos *repository.Set) error) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewSet(tx))
	})

	if s.metrics != nil {
		status := metrics.StatusCommitted
		if err != nil {
			status = metrics.StatusRollback
		}
		s.metrics.RecordTransaction(status, time.Since(start).Seconds())
		if sqlDB, dbErr := s.db.DB(); dbErr == nil {
			s.metrics.UpdateConnectionStats(sqlDB.Stats())
		}
	}
	return err
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB exposes the GORM handle for tooling such as tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
