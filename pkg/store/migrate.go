package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver used by golang-migrate

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/pkg/models"
	"github.com/voxhall/callstream/pkg/store/migrations"
)

// Migrate brings the schema up to date for the configured backend.
//
// SQLite uses GORM's AutoMigrate, which is sufficient for a single-writer
// embedded database. PostgreSQL uses versioned SQL migrations via
// golang-migrate so that concurrent instances coordinate through the
// advisory lock golang-migrate takes automatically.
func (s *SQLStore) Migrate() error {
	if s.config.Type != DatabaseTypePostgres {
		if err := s.db.AutoMigrate(models.Tables()...); err != nil {
			return fmt.Errorf("failed to auto-migrate sqlite schema: %w", err)
		}
		return nil
	}
	return migratePostgres(context.Background(), s.config.Postgres.URL)
}

// newMigrator wires golang-migrate to the embedded migration files. The
// caller owns both handles and must close the *sql.DB when done.
func newMigrator(connString string) (*migrate.Migrate, *sql.DB, error) {
	// golang-migrate works on a database/sql handle, not a GORM one.
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open postgres for migration: %w", err)
	}

	drv, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to assemble migrator: %w", err)
	}
	return m, db, nil
}

func migratePostgres(ctx context.Context, connString string) error {
	m, db, err := newMigrator(connString)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach postgres before migrating: %w", err)
	}

	logger.Info("Applying schema migrations")
	switch err := m.Up(); {
	case err == nil:
		logger.Info("Schema migrations applied")
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("Schema already up to date")
	default:
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("Schema version", "version", version, "dirty", dirty)
	if dirty {
		logger.Warn("Schema version is marked dirty; resolve manually before the next deploy")
	}
	return nil
}

// MigrationVersion reports the current schema version of a PostgreSQL
// database and whether it is dirty. A database with no applied migrations
// reports 0, false.
func MigrationVersion(connString string) (uint, bool, error) {
	m, db, err := newMigrator(connString)
	if err != nil {
		return 0, false, err
	}
	defer db.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}
