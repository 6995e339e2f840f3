package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `id, seq, program_id, input, input_id, output, status,
	error_code, error_message, error_details, max_steps, steps, restarts, cache_hits`

// ListOptions filters ListRuns.
type ListOptions struct {
	// Limit caps the number of runs returned. Zero means no limit.
	Limit int

	// ProgramID restricts the listing to one rule set.
	ProgramID string
}

// ReadRun retrieves a run and its rewrites by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, sql.ErrNoRows
		}
		return Run{}, err
	}

	run.Rewrites, err = s.ReadRewrites(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ReadRewrites returns the rewrites of a run ordered by seq.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadRewrites(ctx context.Context, runID string) ([]Rewrite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, rule, before_expr, after_expr
		FROM rewrites
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rewrites: %w", err)
	}
	defer rows.Close()

	rewrites := []Rewrite{}
	for rows.Next() {
		var rw Rewrite
		if err := rows.Scan(&rw.Seq, &rw.Rule, &rw.Before, &rw.After); err != nil {
			return nil, fmt.Errorf("scan rewrite: %w", err)
		}
		rewrites = append(rewrites, rw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rewrites: %w", err)
	}
	return rewrites, nil
}

// ListRuns returns runs newest first (seq DESC). Rewrites are not loaded;
// use ReadRun for a full record.
func (s *Store) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if opts.ProgramID != "" {
		query += ` WHERE program_id = ?`
		args = append(args, opts.ProgramID)
	}
	query += ` ORDER BY seq DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RuleCount is the number of recorded applications of one rule.
type RuleCount struct {
	Rule  string `json:"rule"`
	Count int    `json:"count"`
}

// CountRewritesByRule aggregates all recorded rewrites per rule, most
// applied first, ties broken by rule name.
func (s *Store) CountRewritesByRule(ctx context.Context) ([]RuleCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, COUNT(*) AS n
		FROM rewrites
		GROUP BY rule
		ORDER BY n DESC, rule COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query rule counts: %w", err)
	}
	defer rows.Close()

	counts := []RuleCount{}
	for rows.Next() {
		var rc RuleCount
		if err := rows.Scan(&rc.Rule, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan rule count: %w", err)
		}
		counts = append(counts, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule counts: %w", err)
	}
	return counts, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans one runs row. Rewrites are left nil.
func scanRun(row rowScanner) (Run, error) {
	var run Run
	var detailsJSON string

	if err := row.Scan(
		&run.ID, &run.Seq, &run.ProgramID, &run.Input, &run.InputID, &run.Output, &run.Status,
		&run.ErrorCode, &run.ErrorMessage, &detailsJSON,
		&run.MaxSteps, &run.Steps, &run.Restarts, &run.CacheHits,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	details, err := unmarshalDetails(detailsJSON)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	run.ErrorDetails = details
	return run, nil
}
