// Package testing provides testing utilities and helpers for the rebalancer.
package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/rebalancer/internal/database"
)

// NewTestDB creates a temporary-file SQLite database with the rebalancer schema applied.
// The database is closed and removed when the test finishes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	dir, err := os.MkdirTemp("", "rebalancer_test_*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(dir, "rebalancer.db"),
		Profile: database.ProfileStandard,
		Name:    "rebalancer",
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.RemoveAll(dir)
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
		if err := os.RemoveAll(dir); err != nil {
			t.Logf("Warning: Failed to remove temporary database directory %s: %v", dir, err)
		}
	})

	return db
}
