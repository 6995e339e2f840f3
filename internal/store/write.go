package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Run status values.
const (
	StatusOK            = "ok"
	StatusStepsExceeded = "steps_exceeded"
	StatusCancelled     = "cancelled"
	StatusError         = "error"
)

// Run is one recorded Simplify call.
type Run struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	ProgramID string `json:"program_id"`
	Input     string `json:"input"`
	InputID   string `json:"input_id"`
	Output    string `json:"output,omitempty"`
	Status    string `json:"status"`

	ErrorCode    string            `json:"error_code,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	ErrorDetails map[string]string `json:"error_details,omitempty"`

	MaxSteps  int `json:"max_steps"`
	Steps     int `json:"steps"`
	Restarts  int `json:"restarts"`
	CacheHits int `json:"cache_hits"`

	Rewrites []Rewrite `json:"rewrites"`
}

// Rewrite is one rule application inside a run, in application order.
type Rewrite struct {
	Seq    int    `json:"seq"`
	Rule   string `json:"rule"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// WriteRun inserts a run and its rewrites in a single transaction.
//
// An empty ID is filled with a UUIDv7 and Seq is always stamped from the
// store's clock; the stamped run is returned. Rewrite seqs are renumbered
// 1..n in slice order.
//
// Writing a run whose ID already exists is a no-op that returns the run
// unchanged with Seq 0.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Run{}, fmt.Errorf("write run: generate id: %w", err)
		}
		run.ID = id.String()
	}

	detailsJSON, err := marshalDetails(run.ErrorDetails)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq := s.clock.Next()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, program_id, input, input_id, output, status,
		 error_code, error_message, error_details, max_steps, steps, restarts, cache_hits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		seq,
		run.ProgramID,
		run.Input,
		run.InputID,
		run.Output,
		run.Status,
		run.ErrorCode,
		run.ErrorMessage,
		detailsJSON,
		run.MaxSteps,
		run.Steps,
		run.Restarts,
		run.CacheHits,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Run{}, fmt.Errorf("write run: rows affected: %w", err)
	}
	if affected == 0 {
		run.Seq = 0
		return run, nil
	}
	run.Seq = seq

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rewrites (run_id, seq, rule, before_expr, after_expr)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("write run: prepare rewrites: %w", err)
	}
	defer stmt.Close()

	rewrites := make([]Rewrite, len(run.Rewrites))
	for i, rw := range run.Rewrites {
		rw.Seq = i + 1
		if _, err := stmt.ExecContext(ctx, run.ID, rw.Seq, rw.Rule, rw.Before, rw.After); err != nil {
			return Run{}, fmt.Errorf("write run: rewrite %d: %w", rw.Seq, err)
		}
		rewrites[i] = rw
	}
	run.Rewrites = rewrites

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}
