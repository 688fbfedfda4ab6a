// Package db opens the SQLite database backing the run index and applies
// its embedded schema migrations.
package db

import (
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
)

// SQLiteBusyTimeoutMS is how long a writer waits on a locked database
const SQLiteBusyTimeoutMS = 5000

// Open opens a SQLite database at the specified path with optimized settings.
// If logger is provided, logs database operations; otherwise operates silently.
func Open(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	if log != nil {
		log.Debugw("Opening database", logger.FieldPath, path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}

	// Every connection to :memory: is a separate database
	if isMemory(path) {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	if _, err := db.Exec("PRAGMA busy_timeout = " + strconv.Itoa(SQLiteBusyTimeoutMS)); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}

	if log != nil {
		log.Infow("Database opened successfully",
			logger.FieldPath, path,
			"wal_mode", !isMemory(path),
			"foreign_keys", true,
		)
	}

	return db, nil
}

// OpenWithMigrations opens the database at path and brings its schema up to date
func OpenWithMigrations(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	db, err := Open(path, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := Migrate(db, log); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return db, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
