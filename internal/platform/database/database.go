package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/lib/pq"              // postgres driver
	"github.com/ridloal/toko-storefront/internal/platform/config"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
	_ "modernc.org/sqlite" // sqlite driver
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 25
	connMaxLifetime = 5 * time.Minute
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DBTX is satisfied by *sql.Tx. Repositories take it for writes that must share a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
	Commit() error
	Rollback() error
}

// Target resolves a database URL into a driver name, a DSN for that driver and the SQL dialect.
func Target(cfg config.DBConfig) (driver, dsn string, dialect Dialect, err error) {
	url := cfg.URL
	switch {
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "sqlite:"):
		path := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite:"), "//")
		if path == "" {
			return "", "", "", fmt.Errorf("empty sqlite path in %q", url)
		}
		return "sqlite", sqliteDSN(path), DialectSQLite, nil
	case strings.HasPrefix(url, "postgres://"):
		driver = "pgx"
		if cfg.Driver == "postgres" {
			driver = "postgres"
		}
		return driver, url, DialectPostgres, nil
	default:
		return "", "", "", fmt.Errorf("unsupported database url scheme: %q", url)
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

func Connect(cfg config.DBConfig) (*sql.DB, Dialect, error) {
	driver, dsn, dialect, err := Target(cfg)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite allows one writer; a single connection also keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxLifetime(connMaxLifetime)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the %s database (driver %s)", dialect, driver)
	return db, dialect, nil
}
