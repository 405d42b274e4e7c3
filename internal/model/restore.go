package model

// RestoreStage identifies one step of the restore state machine.
type RestoreStage string

const (
	StageStarting             RestoreStage = "starting"
	StageSafetyBackup         RestoreStage = "safety_backup"
	StageSkippingSafetyBackup RestoreStage = "skipping_safety_backup"
	StageDeleting             RestoreStage = "deleting"
	StageExtracting           RestoreStage = "extracting"
	StageComplete             RestoreStage = "complete"
	StageError                RestoreStage = "error"
)

// RestoreProgress is one progress event emitted while a restore runs.
// Percent is non-decreasing across a session; the terminal complete
// event carries the safety backup's name when one was created.
type RestoreProgress struct {
	Archive          string       `json:"archive"`
	Stage            RestoreStage `json:"stage"`
	Percent          int          `json:"percent"`
	Message          string       `json:"message,omitempty"`
	SafetyBackupName string       `json:"safety_backup_name,omitempty"`
	Error            string       `json:"error,omitempty"`
}
