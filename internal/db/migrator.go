package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/db/dsn"
)

const (
	ControlMigrationTable    = "goose_db_version"
	DefaultControlMigrations = "migrations/control"
)

var ErrMissingMigrationDir = errors.New("control migration directory is not configured")

type migrator struct {
	dsn string
	dir string
}

// Migrator runs goose migrations against the control-plane store. Tenant
// databases are intentionally out of its reach: their schema belongs to the
// applications living in them, not to the control plane.
type Migrator interface {
	MigrateToLatest(ctx context.Context) error
	MigrateDownTo(ctx context.Context, version int64) error
}

func NewMigrator(cfg *config.Config) (Migrator, error) {
	dsnFromConfig, err := dsn.FromDBConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	dir := cfg.Database.Migrator.Control
	if dir == "" {
		dir = DefaultControlMigrations
	}

	return &migrator{
		dsn: dsnFromConfig,
		dir: dir,
	}, nil
}

// MigrateToLatest runs all control-store migrations up to and including the
// latest version.
func (m *migrator) MigrateToLatest(ctx context.Context) error {
	return m.run(ctx, func(ctx context.Context, db *sql.DB) error {
		return goose.UpContext(ctx, db, m.dir)
	})
}

// MigrateDownTo downgrades the control store until it is at the given version.
func (m *migrator) MigrateDownTo(ctx context.Context, version int64) error {
	return m.run(ctx, func(ctx context.Context, db *sql.DB) error {
		return goose.DownToContext(ctx, db, m.dir, version)
	})
}

func (m *migrator) run(ctx context.Context, f func(context.Context, *sql.DB) error) error {
	if m.dir == "" {
		return ErrMissingMigrationDir
	}

	dbCon, err := goose.OpenDBWithDriver("pgx", m.dsn)
	if err != nil {
		return err
	}
	defer dbCon.Close()

	goose.SetTableName(ControlMigrationTable)

	return f(ctx, dbCon)
}
