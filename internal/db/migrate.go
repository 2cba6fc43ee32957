package db

import (
	"context"      // Request-scoped cancellation
	"database/sql" // SQL handle for goose
	"embed"        // Embedded migrations
	"fmt"          // Error wrapping

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the pgx database/sql driver
	"github.com/pressly/goose/v3"      // Goose migrations
	"github.com/sirupsen/logrus"       // Logrus for structured logging
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded SQL migrations with goose
type Migrator struct {
	db *sql.DB
}

// NewMigrator opens a database/sql handle for goose
func NewMigrator(databaseURL string) (*Migrator, error) {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Migrator{db: sqlDB}, nil
}

// Up applies every pending migration
func (m *Migrator) Up(ctx context.Context) error {
	logrus.Info("Applying database migrations")
	if err := goose.UpContext(ctx, m.db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	logrus.Info("Migration completed.")
	return nil
}

// Down rolls back the latest migration
func (m *Migrator) Down(ctx context.Context) error {
	if err := goose.DownContext(ctx, m.db, "migrations"); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// Version reports the applied schema version
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

// Close releases the database/sql handle
func (m *Migrator) Close() error {
	return m.db.Close()
}
