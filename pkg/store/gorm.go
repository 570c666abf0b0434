package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/voxhall/callstream/pkg/metrics"
	"github.com/voxhall/callstream/pkg/models"
)

// SQLStore implements Store on top of GORM, serving both the SQLite and the
// PostgreSQL backend through the same code paths.
type SQLStore struct {
	db      *gorm.DB
	config  *Config
	metrics metrics.CallMetrics
}

var _ Store = (*SQLStore)(nil)

// New opens the configured backend and brings the schema up to date: SQLite
// via GORM AutoMigrate, PostgreSQL via the embedded SQL migrations.
func New(config *Config) (*SQLStore, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	dialector, err := openDialector(config)
	if err != nil {
		return nil, err
	}

	// GORM's own query log is noisy at its default level; store operations
	// are reported through the application logger instead.
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLStore{db: db, config: config}
	if err := store.configurePool(); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return store, nil
}

// openDialector builds the GORM dialector for the configured backend.
func openDialector(config *Config) (gorm.Dialector, error) {
	switch config.Type {
	case DatabaseTypePostgres:
		return postgres.Open(config.Postgres.URL), nil

	case DatabaseTypeSQLite:
		if config.SQLite.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// WAL lets readers proceed alongside the single writer, and
		// busy_timeout makes a locked writer wait 5s instead of failing.
		pragmas := "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		return sqlite.Open(config.SQLite.Path + pragmas), nil

	default:
		return nil, fmt.Errorf("no dialector for database type %q", config.Type)
	}
}

// configurePool sizes the connection pool for the backend.
func (s *SQLStore) configurePool() error {
	sqlDB, err := s.sqlHandle()
	if err != nil {
		return err
	}
	switch {
	case s.config.Type == DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(s.config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(s.config.Postgres.MaxIdleConns)
	case s.config.SQLite.Path == ":memory:":
		// Every pooled connection to :memory: would see its own empty
		// database, so the pool collapses to one shared connection.
		sqlDB.SetMaxOpenConns(1)
	}
	return nil
}

// sqlHandle unwraps the database/sql handle behind the GORM session.
func (s *SQLStore) sqlHandle() (*sql.DB, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap sql handle: %w", err)
	}
	return sqlDB, nil
}

// SetMetrics attaches a metrics sink for state transition counters. Call it
// before the store is shared between goroutines; a nil sink disables
// recording.
func (s *SQLStore) SetMetrics(m metrics.CallMetrics) {
	s.metrics = m
}

// DB exposes the underlying GORM session for tests and ad-hoc queries.
func (s *SQLStore) DB() *gorm.DB {
	return s.db
}

// Healthcheck pings the database.
func (s *SQLStore) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.sqlHandle()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.sqlHandle()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// lockCall loads the call row inside the given transaction, taking a row lock
// on backends that support it. SQLite rejects FOR UPDATE syntax and already
// serializes writers, so the clause is only applied on PostgreSQL.
func (s *SQLStore) lockCall(tx *gorm.DB, callID string) (*models.Call, error) {
	var call models.Call
	q := tx
	if s.config.Type == DatabaseTypePostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("call_id = ?", callID).First(&call).Error; err != nil {
		return nil, mapNotFound(err, models.ErrCallNotFound)
	}
	return &call, nil
}

// isDuplicateKey reports whether err is a unique constraint violation on
// either backend.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value violates unique constraint") // postgres
}

// mapNotFound substitutes domainErr for gorm.ErrRecordNotFound and passes
// every other error through unchanged.
func mapNotFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
