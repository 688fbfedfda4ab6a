package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/publicrust/DotnetDllParser/errors"
)

func TestOpen(t *testing.T) {
	t.Run("opens database successfully", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")

		db, err := Open(dbPath, nil)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		var journalMode string
		require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, "wal", journalMode)

		var foreignKeys int
		require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
		assert.Equal(t, 1, foreignKeys)

		var busyTimeout int
		require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, SQLiteBusyTimeoutMS, busyTimeout)
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

		db, err := Open(filepath.Join(blocker, "index.db"), nil)

		// If Open() succeeds (lazy connection on some platforms), Ping() will fail
		if err == nil && db != nil {
			err = db.Ping()
			db.Close()
		}
		require.Error(t, err)
		assert.NotNil(t, errors.GetReportableStackTrace(err), "error should have stack trace from errors.Wrap")
	})

	t.Run("creates database file if it doesn't exist", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "new.db")

		_, err := os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))

		db, err := Open(dbPath, nil)
		require.NoError(t, err)
		defer db.Close()

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("in-memory database keeps one connection", func(t *testing.T) {
		db, err := Open(":memory:", nil)
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Exec("CREATE TABLE scratch (id INTEGER)")
		require.NoError(t, err)

		// A second pooled connection would not see the table
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM scratch").Scan(&n))
		assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	})

	t.Run("operations on a closed database fail", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		db.Close()

		_, err = db.Exec("PRAGMA journal_mode")
		require.Error(t, err)
		assert.True(t, IsDatabaseClosed(err))
	})
}

func TestOpen_WithLogger(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()
}

func TestIsDatabaseClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrDatabaseClosed, true},
		{"wrapped sentinel", errors.Wrap(ErrDatabaseClosed, "save run"), true},
		{"driver message", errors.New("sql: database is closed"), true},
		{"unrelated", errors.New("disk I/O error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDatabaseClosed(tt.err))
		})
	}
}
