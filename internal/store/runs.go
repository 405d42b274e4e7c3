package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/saveward/internal/model"
)

// RunStore records every backup attempt in the backup_runs table.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Begin inserts a running record for a new backup attempt.
func (s *RunStore) Begin(kind model.RunKind) (*model.BackupRun, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO backup_runs (kind, status, started_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		kind, model.RunStatusRunning, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("begin backup run: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.BackupRun{
		ID:        id,
		Kind:      kind,
		Status:    model.RunStatusRunning,
		StartedAt: now,
		CreatedAt: now,
	}, nil
}

// Complete marks the run successful with the produced archive's details.
func (s *RunStore) Complete(id int64, archiveName string, sizeBytes int64, fileCount int) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE backup_runs SET status = ?, archive_name = ?, size_bytes = ?, file_count = ?, completed_at = ?
		 WHERE id = ?`,
		model.RunStatusCompleted, archiveName, sizeBytes, fileCount, now, id,
	)
	if err != nil {
		return fmt.Errorf("complete backup run %d: %w", id, err)
	}
	return nil
}

// Fail marks the run failed with the error message.
func (s *RunStore) Fail(id int64, errorMsg string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE backup_runs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		model.RunStatusFailed, errorMsg, now, id,
	)
	if err != nil {
		return fmt.Errorf("fail backup run %d: %w", id, err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *RunStore) List(limit int) ([]model.BackupRun, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, archive_name, status, size_bytes, file_count, error_message, started_at, completed_at, created_at
		 FROM backup_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backup runs: %w", err)
	}
	defer rows.Close()

	var runs []model.BackupRun
	for rows.Next() {
		var r model.BackupRun
		var errMsg sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Kind, &r.ArchiveName, &r.Status, &r.SizeBytes, &r.FileCount, &errMsg, &r.StartedAt, &completedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup run: %w", err)
		}
		r.ErrorMessage = errMsg.String
		if completedAt.Valid {
			r.CompletedAt = &completedAt.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestCompleted returns the most recent successful run, or nil.
func (s *RunStore) LatestCompleted() (*model.BackupRun, error) {
	r := &model.BackupRun{}
	var errMsg sql.NullString
	var completedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, kind, archive_name, status, size_bytes, file_count, error_message, started_at, completed_at, created_at
		 FROM backup_runs WHERE status = ? ORDER BY completed_at DESC LIMIT 1`,
		model.RunStatusCompleted,
	).Scan(&r.ID, &r.Kind, &r.ArchiveName, &r.Status, &r.SizeBytes, &r.FileCount, &errMsg, &r.StartedAt, &completedAt, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest completed run: %w", err)
	}
	r.ErrorMessage = errMsg.String
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	return r, nil
}
