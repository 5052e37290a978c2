package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	mdb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded schema for the given dialect. Already up-to-date databases are left alone.
func Migrate(db *sql.DB, dialect Dialect) error {
	var (
		driver mdb.Driver
		err    error
	)
	switch dialect {
	case DialectPostgres:
		var pg *postgres.Postgres
		pg, err = postgresDriver(db)
		driver = pg
	case DialectSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	// Only the postgres driver owns its connection. Closing the sqlite driver
	// would close the shared *sql.DB.
	if dialect == DialectPostgres {
		defer func() {
			if err := driver.Close(); err != nil {
				logger.Warn("could not release migration connection: %v", err)
			}
		}()
	}

	src, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("database schema at version %d", version)
	return nil
}

// postgresDriver runs migrations on a dedicated connection. postgres.WithInstance
// would close the whole pool on Close, so the driver is built from a *sql.Conn.
func postgresDriver(db *sql.DB) (*postgres.Postgres, error) {
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	pg, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return pg, nil
}
