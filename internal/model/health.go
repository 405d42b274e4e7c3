package model

// HealthState summarizes the scheduler's most recent outcomes. It is
// in-memory only; a monitoring view reads it to detect a silently
// failing scheduler. A failure never erases LastSuccessfulBackup, it
// only suppresses updating it.
type HealthState struct {
	SchedulerActive      bool   `json:"scheduler_active"`
	LastSuccessfulBackup int64  `json:"last_successful_backup,omitempty"`
	LastFailedBackup     int64  `json:"last_failed_backup,omitempty"`
	LastError            string `json:"last_error,omitempty"`
}
