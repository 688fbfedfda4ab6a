package testing

import (
	"database/sql"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/publicrust/DotnetDllParser/db"
)

// CreateTestDB creates a migrated in-memory index database.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenWithMigrations(":memory:", zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
