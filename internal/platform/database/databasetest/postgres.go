//go:build integration

package databasetest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ridloal/toko-storefront/internal/platform/config"
	"github.com/ridloal/toko-storefront/internal/platform/database"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// NewPostgres starts a throwaway Postgres container and returns a migrated handle to it.
// driver is "pgx" or "postgres" (lib/pq).
func NewPostgres(t testing.TB, driver string) *sql.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("toko"),
		postgres.WithUsername("toko"),
		postgres.WithPassword("toko"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	url, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, dialect, err := database.Connect(config.DBConfig{URL: url, Driver: driver})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, dialect))
	return db
}
