package model

// Settings bounds. Load clamps to the floors; explicit updates are
// validated against the full ranges instead.
const (
	MinIntervalSeconds = 60
	MaxIntervalSeconds = 86400
	MinArchivesToKeep  = 1
	MaxArchivesToKeep  = 100

	DefaultIntervalSeconds   = 3600
	DefaultMaxArchivesToKeep = 10
)

// BackupSettings are the process-wide scheduler tunables. They are
// persisted in the settings table and re-read before every scheduler
// iteration, so updates take effect without a restart.
type BackupSettings struct {
	IntervalSeconds   int  `json:"interval_seconds"`
	MaxArchivesToKeep int  `json:"max_archives_to_keep"`
	AutoSafetyBackup  bool `json:"auto_safety_backup"`
}

// DefaultBackupSettings returns the compile-time defaults used when the
// settings table is missing or unparseable.
func DefaultBackupSettings() BackupSettings {
	return BackupSettings{
		IntervalSeconds:   DefaultIntervalSeconds,
		MaxArchivesToKeep: DefaultMaxArchivesToKeep,
		AutoSafetyBackup:  true,
	}
}
