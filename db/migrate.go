package db

import (
	"database/sql"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one NNN_description.sql file
type migration struct {
	version string
	file    string
}

// Migrate brings the index schema up to date. Embedded migrations run in
// version order, each in its own transaction, and are recorded in
// schema_migrations so a second call applies nothing. A nil log is silent.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	all, err := embeddedMigrations()
	if err != nil {
		return err
	}
	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	ran := 0
	for _, m := range all {
		if applied[m.version] {
			log.Debugw("Migration already applied", "migration", m.file)
			continue
		}
		if err := apply(db, m); err != nil {
			return err
		}
		log.Infow("Applied migration", "migration", m.file, "version", m.version)
		ran++
	}

	log.Debugw("Schema up to date", logger.FieldCount, len(all), "applied", ran)
	return nil
}

func embeddedMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrations, migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read embedded migrations")
	}

	var list []migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, errors.Newf("migration %s is not named NNN_description.sql", name)
		}
		list = append(list, migration{version: version, file: name})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].version < list[j].version })
	return list, nil
}

// appliedVersions returns the recorded versions; none before 000 has run
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'").Scan(&n)
	if err != nil {
		return nil, errors.Wrap(err, "failed to inspect schema")
	}
	applied := make(map[string]bool)
	if n == 0 {
		return applied, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read schema_migrations")
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "failed to scan migration version")
		}
		applied[v] = true
	}
	return applied, errors.Wrap(rows.Err(), "failed to read schema_migrations")
}

// apply runs one migration and records it in the same transaction
func apply(db *sql.DB, m migration) (err error) {
	body, err := migrations.ReadFile(path.Join(migrationsDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", m.file)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "failed to begin %s", m.file)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(string(body)); err != nil {
		return errors.Wrapf(err, "failed to execute %s", m.file)
	}
	if _, err = tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return errors.Wrapf(err, "failed to record %s", m.file)
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit %s", m.file)
	}
	return nil
}
