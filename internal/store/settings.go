package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dukerupert/saveward/internal/model"
)

const (
	keyIntervalSeconds = "backup_interval_seconds"
	keyMaxArchives     = "backup_max_archives"
	keyAutoSafety      = "backup_auto_safety"
)

// SettingsStore persists the scheduler tunables in the settings table.
// Writes go through a single transaction so the scheduler's per-tick
// load never observes a torn update.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Load reads the persisted settings. It never fails: a missing or
// unparseable value falls back to its compile-time default, and the
// interval and retention count are clamped to their floors. This is
// deliberately more forgiving than Validate, which rejects out-of-range
// input on explicit updates.
func (s *SettingsStore) Load() model.BackupSettings {
	settings := model.DefaultBackupSettings()

	if v, err := s.get(keyIntervalSeconds); err == nil {
		if n, err := strconv.Atoi(v); err == nil {
			settings.IntervalSeconds = max(n, model.MinIntervalSeconds)
		}
	}
	if v, err := s.get(keyMaxArchives); err == nil {
		if n, err := strconv.Atoi(v); err == nil {
			settings.MaxArchivesToKeep = max(n, model.MinArchivesToKeep)
		}
	}
	if v, err := s.get(keyAutoSafety); err == nil {
		settings.AutoSafetyBackup = v == "true"
	}

	return settings
}

// Save persists validated settings atomically.
func (s *SettingsStore) Save(settings model.BackupSettings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin settings update: %w", err)
	}
	defer tx.Rollback()

	pairs := map[string]string{
		keyIntervalSeconds: strconv.Itoa(settings.IntervalSeconds),
		keyMaxArchives:     strconv.Itoa(settings.MaxArchivesToKeep),
		keyAutoSafety:      strconv.FormatBool(settings.AutoSafetyBackup),
	}
	now := time.Now().UTC()
	for key, value := range pairs {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now,
		); err != nil {
			return fmt.Errorf("set setting %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings update: %w", err)
	}
	return nil
}

func (s *SettingsStore) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting %q not found", key)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// Validate checks explicit user input against the full allowed ranges.
// Unlike Load it rejects rather than clamps, returning every field
// error at once so all can be surfaced together.
func Validate(settings model.BackupSettings) error {
	fields := make(map[string]string)

	if settings.IntervalSeconds < model.MinIntervalSeconds || settings.IntervalSeconds > model.MaxIntervalSeconds {
		fields["interval_seconds"] = fmt.Sprintf("must be between %d and %d",
			model.MinIntervalSeconds, model.MaxIntervalSeconds)
	}
	if settings.MaxArchivesToKeep < model.MinArchivesToKeep || settings.MaxArchivesToKeep > model.MaxArchivesToKeep {
		fields["max_archives_to_keep"] = fmt.Sprintf("must be between %d and %d",
			model.MinArchivesToKeep, model.MaxArchivesToKeep)
	}

	if len(fields) > 0 {
		return &model.ValidationError{Fields: fields}
	}
	return nil
}
