package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/shared"
)

const runColumns = `id, sequence, input_path, workers, status, total, completed, failed, skipped, started_at, finished_at`

// RunRepository stores update runs and their per-row results.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a running record, assigning the sequence and, when unset, the ID and start time.
func (r *RunRepository) Create(run *models.Run) error {
	if run.InputPath == "" {
		return fmt.Errorf("%w: input path is required", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.Sequence = sequence
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = models.RunRunning
	}

	query := `
		INSERT INTO runs (id, sequence, input_path, workers, status, total, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, run.ID, run.Sequence, run.InputPath, run.Workers, run.Status, run.Total, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Finish records the final counts and status of run and upserts every result in one transaction.
func (r *RunRepository) Finish(run *models.Run, results []models.RowResult) error {
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE runs
		SET status = ?, total = ?, completed = ?, failed = ?, skipped = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := tx.Exec(query, run.Status, run.Total, run.Completed, run.Failed, run.Skipped, *run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID)
	}

	for _, res := range results {
		if err := saveResult(tx, res); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// SaveResult inserts or replaces the result for one row of a run.
func (r *RunRepository) SaveResult(res models.RowResult) error {
	return saveResult(r.db, res)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveResult(db execer, res models.RowResult) error {
	if res.UpdatedAt.IsZero() {
		res.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO row_results (run_id, row_index, video_id, state, reason, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, row_index) DO UPDATE SET
			video_id = excluded.video_id,
			state = excluded.state,
			reason = excluded.reason,
			updated_at = excluded.updated_at
	`

	_, err := db.Exec(query, res.RunID, res.Index, res.VideoID, res.State.String(), res.Reason, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save result for row %d: %w", res.Index, err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id), id)
}

// GetBySequence retrieves a run by its sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE sequence = ?`
	return r.scanOne(r.db.QueryRow(query, sequence), fmt.Sprintf("#%d", sequence))
}

// List returns the most recent runs first. A limit of zero or less returns every run.
func (r *RunRepository) List(limit int) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY sequence DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Results returns the recorded row results of a run in row order.
func (r *RunRepository) Results(runID string) ([]models.RowResult, error) {
	query := `
		SELECT run_id, row_index, video_id, state, reason, updated_at
		FROM row_results
		WHERE run_id = ?
		ORDER BY row_index
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []models.RowResult
	for rows.Next() {
		var (
			res   models.RowResult
			state string
		)
		if err := rows.Scan(&res.RunID, &res.Index, &res.VideoID, &state, &res.Reason, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		st, ok := models.ParseJobState(state)
		if !ok {
			return nil, fmt.Errorf("unknown state %q for row %d", state, res.Index)
		}
		res.State = st
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanOne scans a single [sql.Row] into a [models.Run]
func (r *RunRepository) scanOne(row *sql.Row, key string) (*models.Run, error) {
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, key)
	}
	return run, err
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run        models.Run
		finishedAt sql.NullTime
	)

	err := s.Scan(
		&run.ID, &run.Sequence, &run.InputPath, &run.Workers, &run.Status,
		&run.Total, &run.Completed, &run.Failed, &run.Skipped,
		&run.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}
