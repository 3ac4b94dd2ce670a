package store

import (
	"database/sql"
	"fmt"
)

const runColumns = "id, kind, root, language, snapshot_path, files, regions, added, removed, started_at"

const changeColumns = "id, run_id, ordinal, change, path, annotation, control_ids, content_hash, start_line, start_col, end_line, end_col"

// RecordRun inserts a run and its changes within a single transaction. The
// run's Added and Removed counts are derived from changes. On success r.ID
// and every change's ID, RunID and Ordinal are set.
func (s *Store) RecordRun(r *Run, changes []Change) (int64, error) {
	r.Added, r.Removed = 0, 0
	for _, c := range changes {
		switch c.Kind {
		case ChangeAdded:
			r.Added++
		case ChangeRemoved:
			r.Removed++
		default:
			return 0, fmt.Errorf("record run: invalid change kind %q", c.Kind)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO runs (kind, root, language, snapshot_path, files, regions, added, removed, started_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.Kind, r.Root, r.Language, r.SnapshotPath, r.Files, r.Regions, r.Added, r.Removed, r.StartedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("record run: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record run: last insert id: %w", err)
	}

	for i := range changes {
		c := &changes[i]
		c.RunID = runID
		c.Ordinal = i
		id, err := insertChangeTx(tx, c)
		if err != nil {
			return 0, fmt.Errorf("record run: change %s: %w", c.Path, err)
		}
		c.ID = id
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record run: commit: %w", err)
	}
	r.ID = runID
	return runID, nil
}

func insertChangeTx(tx *sql.Tx, c *Change) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO run_changes (run_id, ordinal, change, path, annotation, control_ids, content_hash, start_line, start_col, end_line, end_col) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.RunID, c.Ordinal, c.Kind, c.Path, c.Annotation, marshalIDs(c.ControlIDs), c.ContentHash,
		c.StartLine, c.StartCol, c.EndLine, c.EndCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RunByID returns the run with the given ID, or nil when none exists.
func (s *Store) RunByID(id int64) (*Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run by id: %w", err)
	}
	return r, nil
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	err := scanner.Scan(&r.ID, &r.Kind, &r.Root, &r.Language, &r.SnapshotPath,
		&r.Files, &r.Regions, &r.Added, &r.Removed, &r.StartedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ChangesByRun returns a run's changes in the order they were recorded.
func (s *Store) ChangesByRun(runID int64) ([]*Change, error) {
	return s.queryChanges("SELECT "+changeColumns+" FROM run_changes WHERE run_id = ? ORDER BY ordinal", runID)
}

// ChangesByRuns returns the changes of several runs, grouped by run and in
// recorded order within each.
func (s *Store) ChangesByRuns(runIDs []int64) ([]*Change, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	return s.queryChanges(
		"SELECT "+changeColumns+" FROM run_changes WHERE run_id IN ("+placeholderList(len(runIDs))+") ORDER BY run_id, ordinal",
		int64sToArgs(runIDs)...,
	)
}

// ChangesByPath returns every recorded change to regions in path, oldest
// first.
func (s *Store) ChangesByPath(path string) ([]*Change, error) {
	return s.queryChanges("SELECT "+changeColumns+" FROM run_changes WHERE path = ? ORDER BY run_id, ordinal", path)
}

func (s *Store) queryChanges(query string, args ...any) ([]*Change, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()
	var changes []*Change
	for rows.Next() {
		c := &Change{}
		var ids sql.NullString
		if err := rows.Scan(&c.ID, &c.RunID, &c.Ordinal, &c.Kind, &c.Path, &c.Annotation, &ids,
			&c.ContentHash, &c.StartLine, &c.StartCol, &c.EndLine, &c.EndCol); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.ControlIDs = unmarshalIDs(ids.String)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Prune deletes all but the newest keep runs and their changes. It returns
// the number of runs deleted.
func (s *Store) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.Exec(
		"DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?)", keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
