// Package database keeps a local history of page check runs in SQLite.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dev/bravebird/jira-diff-pagecheck/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// DB represents the history database
type DB struct {
	conn *sql.DB
}

// Open creates or opens the history database at path and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite allows a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// ==================== Runs ====================

// SaveReport stores a run and its checks. Saving a run ID twice replaces it.
func (db *DB) SaveReport(ctx context.Context, r *models.PageReport) (err error) {
	if r.RunID == "" {
		return errors.New("report has no run id")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, r.RunID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, url, driver, revision, status, category, error_message, screenshot_path, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID,
		r.URL,
		r.Driver,
		r.Revision,
		string(r.Status),
		string(r.Category),
		r.ErrorMessage,
		r.ScreenshotPath,
		r.StartedAt.UnixNano(),
		r.Duration,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, c := range r.Checks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO checks (run_id, position, name, passed, message, category, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, i, c.Name, c.Passed, c.Message, string(c.Category), c.Error)
		if err != nil {
			return fmt.Errorf("failed to insert check %s: %w", c.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetReport retrieves a run by ID. A missing run returns nil, nil.
func (db *DB) GetReport(ctx context.Context, id string) (*models.PageReport, error) {
	query := `
		SELECT id, url, driver, revision, status, category, error_message, screenshot_path, started_at, duration_ms
		FROM runs
		WHERE id = ?
	`

	r, err := scanRun(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if r.Checks, err = db.getChecks(ctx, r.RunID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListReports returns up to limit runs, newest first. A limit of zero or
// less returns every run.
func (db *DB) ListReports(ctx context.Context, limit int) ([]models.PageReport, error) {
	query := `
		SELECT id, url, driver, revision, status, category, error_message, screenshot_path, started_at, duration_ms
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	reports := []models.PageReport{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	for i := range reports {
		if reports[i].Checks, err = db.getChecks(ctx, reports[i].RunID); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

// DeleteReport removes a run and its checks.
func (db *DB) DeleteReport(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// ==================== Checks ====================

func (db *DB) getChecks(ctx context.Context, runID string) ([]models.CheckResult, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, passed, message, category, error
		FROM checks
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get checks: %w", err)
	}
	defer rows.Close()

	checks := []models.CheckResult{}
	for rows.Next() {
		var c models.CheckResult
		var category string
		if err := rows.Scan(&c.Name, &c.Passed, &c.Message, &category, &c.Error); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		c.Category = models.FailureCategory(category)
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.PageReport, error) {
	var r models.PageReport
	var status, category string
	var startedAt int64
	err := s.Scan(
		&r.RunID,
		&r.URL,
		&r.Driver,
		&r.Revision,
		&status,
		&category,
		&r.ErrorMessage,
		&r.ScreenshotPath,
		&startedAt,
		&r.Duration,
	)
	if err != nil {
		return nil, err
	}
	r.Status = models.Status(status)
	r.Category = models.FailureCategory(category)
	r.StartedAt = time.Unix(0, startedAt).UTC()
	return &r, nil
}
