package postgres

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shrimpsizemoose/blindtaste/internal/store/storetest"
)

// setupTestDB starts a throwaway Postgres container and applies migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn, "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() || os.Getenv("INTEGRATION") == "" {
		log.Println("Skipping Postgres integration tests. Set INTEGRATION=1 and drop -short to run them.")
		os.Exit(0)
	}
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func TestPostgresStore(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	storetest.Run(t, s)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.ApplyMigrations("../../../migrations"))
}
