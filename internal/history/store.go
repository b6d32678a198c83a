// Package history persists a local record of every submission so the
// operator can review what was ingested and what failed. The shared ledger
// remains the source of truth; this store is bookkeeping only.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eventdesk/registration-ingest/constants"
	"github.com/eventdesk/registration-ingest/internal/entity"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases must be deleted by the operator.
const schemaVersion = 1

// Store manages submission history backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes or connects to the history database. Use ":memory:" for
// an ephemeral store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("history db has schema version %d, expected %d (delete the database to reset)",
			version, schemaVersion)
	}
	return nil
}

// Begin records a new submission in the RECEIVED stage.
func (s *Store) Begin(ctx context.Context, id uuid.UUID, receiptBookNumber string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, receipt_book_number, stage, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), receiptBookNumber, string(constants.StageReceived), string(constants.StatusRunning), now, now)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// SetStage advances the recorded stage of a running submission.
func (s *Store) SetStage(ctx context.Context, id uuid.UUID, stage constants.Stage) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		"UPDATE submissions SET stage = ?, updated_at = ? WHERE id = ?",
		string(stage), now, id.String())
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

// FinishSuccess marks a submission DONE with its final counts.
func (s *Store) FinishSuccess(ctx context.Context, id uuid.UUID, recordCount, rowsWritten int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET stage = ?, status = ?, record_count = ?, rows_written = ?, updated_at = ?
		WHERE id = ?`,
		string(constants.StageDone), string(constants.StatusSucceeded),
		recordCount, rowsWritten, now, id.String())
	if err != nil {
		return fmt.Errorf("finish submission: %w", err)
	}
	return nil
}

// FinishFailure marks a submission failed at the stage it died in.
func (s *Store) FinishFailure(ctx context.Context, id uuid.UUID, stage constants.Stage, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET stage = ?, status = ?, error_message = ?, updated_at = ?
		WHERE id = ?`,
		string(stage), string(constants.StatusFailed), errMsg, now, id.String())
	if err != nil {
		return fmt.Errorf("fail submission: %w", err)
	}
	return nil
}

// List returns the most recent submissions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]entity.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, receipt_book_number, stage, status, record_count, rows_written, error_message, created_at, updated_at
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []entity.Submission
	for rows.Next() {
		var (
			sub                  entity.Submission
			id, stage, status    string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&id, &sub.ReceiptBookNumber, &stage, &status,
			&sub.RecordCount, &sub.RowsWritten, &sub.ErrorMessage, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse submission id %q: %w", id, err)
		}
		sub.Stage = constants.Stage(stage)
		sub.Status = constants.SubmissionStatus(status)
		if sub.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if sub.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
