package model

import "time"

// RunKind distinguishes how a backup attempt was initiated.
type RunKind string

const (
	RunKindScheduled RunKind = "scheduled"
	RunKindManual    RunKind = "manual"
	RunKindSafety    RunKind = "safety"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// BackupRun is one recorded backup attempt, scheduled or manual. The
// history feeds the dashboard's run table.
type BackupRun struct {
	ID           int64      `json:"id"`
	Kind         RunKind    `json:"kind"`
	ArchiveName  string     `json:"archive_name,omitempty"`
	Status       RunStatus  `json:"status"`
	SizeBytes    int64      `json:"size_bytes"`
	FileCount    int        `json:"file_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
