// Package databasetest opens throwaway databases for repository and service tests.
package databasetest

import (
	"database/sql"
	"testing"

	"github.com/ridloal/toko-storefront/internal/platform/config"
	"github.com/ridloal/toko-storefront/internal/platform/database"
	"github.com/stretchr/testify/require"
)

// NewSQLite returns a migrated in-memory SQLite database that is closed when the test ends.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()

	db, dialect, err := database.Connect(config.DBConfig{URL: "sqlite://:memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, dialect))
	return db
}
