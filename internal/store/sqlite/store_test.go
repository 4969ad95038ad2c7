package sqlite

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/blindtaste/internal/store/storetest"
)

// setupTestDB creates an in-memory SQLite database with the real migrations applied
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(":memory:", "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestSQLiteStore(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	storetest.Run(t, s)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.ApplyMigrations("../../../migrations"))
}

func TestTranslateToSQLite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"uuid column", "id UUID PRIMARY KEY", "id TEXT PRIMARY KEY"},
		{"timestamp with zone", "created_at TIMESTAMPTZ NOT NULL DEFAULT now()", "created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"},
		{"numeric", "percentual NUMERIC(5,2) NOT NULL", "percentual REAL NOT NULL"},
		{"booleans", "is_open BOOLEAN NOT NULL DEFAULT TRUE", "is_open BOOLEAN NOT NULL DEFAULT 1"},
		{"untouched", "name TEXT NOT NULL", "name TEXT NOT NULL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, translateToSQLite(tc.input))
		})
	}
}
