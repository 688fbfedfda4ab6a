// Package index records pipeline runs in SQLite so the curated tree can be
// queried later: which runs happened, what each module produced, and where
// a given type was written.
package index

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/db"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
	"github.com/publicrust/DotnetDllParser/pipeline"
)

// DefaultListLimit caps ListRuns and FindTypes when no limit is given
const DefaultListLimit = 20

// RunSummary is one row of the run listing
type RunSummary struct {
	ID               string    `json:"id"`
	SourceDir        string    `json:"source_dir"`
	OutputDir        string    `json:"output_dir"`
	Interrupted      bool      `json:"interrupted"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	Modules          int       `json:"modules"`
	FailedModules    int       `json:"failed_modules"`
	Processed        int       `json:"processed"`
	SkippedGenerated int       `json:"skipped_generated"`
	FailedTypes      int       `json:"failed_types"`
}

// TypeRecord locates one indexed type
type TypeRecord struct {
	RunID    string              `json:"run_id"`
	Module   string              `json:"module"`
	Name     string              `json:"name"`
	FullName string              `json:"full_name"`
	Status   pipeline.TypeStatus `json:"status"`
	Rule     string              `json:"rule,omitempty"`
	Path     string              `json:"path,omitempty"`
}

// Store reads and writes run reports
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewStore creates a store over an already migrated database
func NewStore(database *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.ComponentLogger("index")
	}
	return &Store{db: database, logger: log}
}

// SaveRun stores a run report with its modules and type outcomes in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, r *pipeline.RunReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapClosed(errors.Wrap(err, "failed to begin index transaction"))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, source_dir, output_dir, interrupted, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.SourceDir, r.OutputDir, r.Interrupted, r.StartTime, r.EndTime)
	if err != nil {
		return wrapClosed(errors.Wrapf(err, "failed to insert run %s", r.RunID))
	}

	types := 0
	for i := range r.Modules {
		m := &r.Modules[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO modules (run_id, name, path, status, processed, skipped_generated,
				skipped_empty, skipped_unaddressable, collisions, error, started_at, ended_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, m.Module, m.Path, string(m.Status), m.Processed, m.SkippedGenerated,
			m.SkippedEmpty, m.SkippedUnaddressable, m.Collisions, m.Error, m.StartTime, m.EndTime)
		if err != nil {
			return errors.Wrapf(err, "failed to insert module %s", m.Module)
		}
		moduleID, err := res.LastInsertId()
		if err != nil {
			return errors.Wrapf(err, "failed to read id of module %s", m.Module)
		}

		for _, o := range m.Outcomes {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO types (module_id, name, full_name, status, rule, path, error)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				moduleID, o.Name, o.FullName, string(o.Status), o.Rule, o.Path, o.Error)
			if err != nil {
				return errors.Wrapf(err, "failed to insert type %s", o.FullName)
			}
			types++
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapClosed(errors.Wrap(err, "failed to commit run"))
	}

	s.logger.Debugw("Run indexed",
		logger.FieldRunID, r.RunID,
		"modules", len(r.Modules),
		"types", types)
	return nil
}

// ListRuns returns the most recent runs first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source_dir, r.output_dir, r.interrupted, r.started_at, r.ended_at,
			COUNT(m.id),
			COALESCE(SUM(CASE WHEN m.status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(m.processed), 0),
			COALESCE(SUM(m.skipped_generated), 0),
			(SELECT COUNT(*) FROM types t JOIN modules tm ON t.module_id = tm.id
				WHERE tm.run_id = r.id AND t.status = 'failed')
		FROM runs r
		LEFT JOIN modules m ON m.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, wrapClosed(errors.Wrap(err, "failed to list runs"))
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.SourceDir, &r.OutputDir, &r.Interrupted, &r.StartedAt, &r.EndedAt,
			&r.Modules, &r.FailedModules, &r.Processed, &r.SkippedGenerated, &r.FailedTypes); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, r)
	}
	return runs, errors.Wrap(rows.Err(), "failed to iterate runs")
}

// GetRun rebuilds the full report of one run
func (s *Store) GetRun(ctx context.Context, id string) (*pipeline.RunReport, error) {
	r := &pipeline.RunReport{RunID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT source_dir, output_dir, interrupted, started_at, ended_at
		FROM runs WHERE id = ?`, id).
		Scan(&r.SourceDir, &r.OutputDir, &r.Interrupted, &r.StartTime, &r.EndTime)
	if err == sql.ErrNoRows {
		return nil, errors.WithHint(errors.NewNotFoundError("run %s not found", id), "list runs with: dllparser index runs")
	}
	if err != nil {
		return nil, wrapClosed(errors.Wrapf(err, "failed to load run %s", id))
	}

	moduleIdx, err := s.loadModules(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := s.loadTypes(ctx, r, moduleIdx); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) loadModules(ctx context.Context, r *pipeline.RunReport) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, path, status, processed, skipped_generated, skipped_empty,
			skipped_unaddressable, collisions, error, started_at, ended_at
		FROM modules WHERE run_id = ? ORDER BY id`, r.RunID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load modules of run %s", r.RunID)
	}
	defer rows.Close()

	moduleIdx := make(map[int64]int)
	for rows.Next() {
		var (
			id     int64
			m      pipeline.ModuleReport
			status string
		)
		if err := rows.Scan(&id, &m.Module, &m.Path, &status, &m.Processed, &m.SkippedGenerated,
			&m.SkippedEmpty, &m.SkippedUnaddressable, &m.Collisions, &m.Error, &m.StartTime, &m.EndTime); err != nil {
			return nil, errors.Wrap(err, "failed to scan module")
		}
		m.Status = pipeline.ModuleStatus(status)
		moduleIdx[id] = len(r.Modules)
		r.Modules = append(r.Modules, m)
	}
	return moduleIdx, errors.Wrap(rows.Err(), "failed to iterate modules")
}

func (s *Store) loadTypes(ctx context.Context, r *pipeline.RunReport, moduleIdx map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.module_id, t.name, t.full_name, t.status, t.rule, t.path, t.error
		FROM types t JOIN modules m ON t.module_id = m.id
		WHERE m.run_id = ? ORDER BY t.id`, r.RunID)
	if err != nil {
		return errors.Wrapf(err, "failed to load types of run %s", r.RunID)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			moduleID int64
			o        pipeline.TypeOutcome
			status   string
		)
		if err := rows.Scan(&moduleID, &o.Name, &o.FullName, &status, &o.Rule, &o.Path, &o.Error); err != nil {
			return errors.Wrap(err, "failed to scan type")
		}
		o.Status = pipeline.TypeStatus(status)

		idx, ok := moduleIdx[moduleID]
		if !ok {
			continue
		}
		m := &r.Modules[idx]
		m.Outcomes = append(m.Outcomes, o)
		if o.Status == pipeline.TypeFailed {
			m.Failed = append(m.Failed, pipeline.TypeFailure{FullName: o.FullName, Error: o.Error})
		}
	}
	return errors.Wrap(rows.Err(), "failed to iterate types")
}

// FindTypes returns the most recent outcomes whose simple or full name
// contains query (SQL LIKE, case-insensitive for ASCII).
func (s *Store) FindTypes(ctx context.Context, query string, limit int) ([]TypeRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	pattern := "%" + query + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.run_id, m.name, t.name, t.full_name, t.status, t.rule, t.path
		FROM types t JOIN modules m ON t.module_id = m.id
		WHERE t.name LIKE ? OR t.full_name LIKE ?
		ORDER BY t.id DESC
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, wrapClosed(errors.Wrap(err, "failed to search types"))
	}
	defer rows.Close()

	var records []TypeRecord
	for rows.Next() {
		var (
			rec    TypeRecord
			status string
		)
		if err := rows.Scan(&rec.RunID, &rec.Module, &rec.Name, &rec.FullName, &status, &rec.Rule, &rec.Path); err != nil {
			return nil, errors.Wrap(err, "failed to scan type")
		}
		rec.Status = pipeline.TypeStatus(status)
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "failed to iterate types")
}

// wrapClosed marks driver "database is closed" errors with db.ErrDatabaseClosed
func wrapClosed(err error) error {
	if db.IsDatabaseClosed(err) {
		return errors.Mark(err, db.ErrDatabaseClosed)
	}
	return err
}
