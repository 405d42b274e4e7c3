package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dukerupert/saveward/internal/model"
)

// Store manages the backup directory: archive files plus their
// .meta.json and .verify.json sidecars. Every ArchiveRecord corresponds
// 1:1 to a tar.gz file; sidecars are keyed by the archive name and are
// deleted together with it.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &model.StorageError{Op: "create backup directory", Err: err}
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the backup directory path.
func (s *Store) Dir() string { return s.dir }

// Path returns the on-disk path for an archive name.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// Exists reports whether the named archive file is present.
func (s *Store) Exists(name string) bool {
	if !validName(name) {
		return false
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// List enumerates every archive in the backup directory, newest first.
// Files that disappear between listing and stat (a concurrent prune)
// are skipped rather than reported as errors.
func (s *Store) List() ([]model.ArchiveRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &model.StorageError{Op: "list backup directory", Err: err}
	}

	records := make([]model.ArchiveRecord, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsArchiveName(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, &model.StorageError{Op: "stat " + name, Err: err}
		}

		record := model.ArchiveRecord{
			Name:      name,
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().Unix(),
		}

		if meta, err := s.LoadMetadata(name); err == nil && meta != nil {
			record.Notes = meta.Notes
			record.Tags = meta.Tags
		}

		verification, err := s.LoadVerification(name)
		if err != nil || verification == nil {
			verification = &model.VerificationResult{Status: model.VerificationUnknown}
		}
		record.Verification = verification

		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].Name > records[j].Name
	})
	return records, nil
}

// Create archives the full contents of sourceDir under the automatic
// naming convention.
func (s *Store) Create(sourceDir string) (model.ArchiveRecord, error) {
	return s.createAs(sourceDir, AutomaticName(s.now()))
}

// CreateSafety archives sourceDir under the pre-restore safety naming
// convention, which exempts it from retention pruning.
func (s *Store) CreateSafety(sourceDir string) (model.ArchiveRecord, error) {
	return s.createAs(sourceDir, SafetyName(s.now()))
}

func (s *Store) createAs(sourceDir, name string) (model.ArchiveRecord, error) {
	path := s.Path(name)
	if _, err := writeTarGz(sourceDir, path); err != nil {
		return model.ArchiveRecord{}, &model.StorageError{Op: "create archive " + name, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return model.ArchiveRecord{}, &model.StorageError{Op: "stat archive " + name, Err: err}
	}

	return model.ArchiveRecord{
		Name:      name,
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime().Unix(),
	}, nil
}

// Extract unpacks the named archive's full contents into destDir.
func (s *Store) Extract(name, destDir string) error {
	if !s.Exists(name) {
		return &model.NotFoundError{Resource: "archive", Name: name}
	}
	if err := extractTarGz(s.Path(name), destDir); err != nil {
		return &model.StorageError{Op: "extract archive " + name, Err: err}
	}
	return nil
}

// Delete removes the archive file and all of its sidecars. Missing
// sidecars are not an error; a missing archive file is NotFound so
// callers can answer 404.
func (s *Store) Delete(name string) error {
	if !validName(name) {
		return &model.NotFoundError{Resource: "archive", Name: name}
	}

	if err := os.Remove(s.Path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.NotFoundError{Resource: "archive", Name: name}
		}
		return &model.StorageError{Op: "delete archive " + name, Err: err}
	}

	for _, sidecar := range []string{metaSidecar(name), verifySidecar(name)} {
		if err := os.Remove(filepath.Join(s.dir, sidecar)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &model.StorageError{Op: "delete sidecar " + sidecar, Err: err}
		}
	}
	return nil
}

// SaveMetadata writes the archive's .meta.json sidecar. Empty metadata
// removes the sidecar instead, so no orphan empty files accumulate.
func (s *Store) SaveMetadata(name string, meta model.ArchiveMetadata) error {
	if !s.Exists(name) {
		return &model.NotFoundError{Resource: "archive", Name: name}
	}

	path := filepath.Join(s.dir, metaSidecar(name))
	if meta.Empty() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &model.StorageError{Op: "remove metadata " + name, Err: err}
		}
		return nil
	}
	return s.writeSidecar(path, meta, "save metadata "+name)
}

// LoadMetadata reads the archive's .meta.json sidecar. Absence is
// (nil, nil), not an error.
func (s *Store) LoadMetadata(name string) (*model.ArchiveMetadata, error) {
	var meta model.ArchiveMetadata
	ok, err := s.readSidecar(filepath.Join(s.dir, metaSidecar(name)), &meta, "load metadata "+name)
	if err != nil || !ok {
		return nil, err
	}
	return &meta, nil
}

// SaveVerification writes the archive's .verify.json sidecar.
func (s *Store) SaveVerification(name string, result model.VerificationResult) error {
	if !s.Exists(name) {
		return &model.NotFoundError{Resource: "archive", Name: name}
	}
	return s.writeSidecar(filepath.Join(s.dir, verifySidecar(name)), result, "save verification "+name)
}

// LoadVerification reads the archive's .verify.json sidecar. Absence is
// (nil, nil).
func (s *Store) LoadVerification(name string) (*model.VerificationResult, error) {
	var result model.VerificationResult
	ok, err := s.readSidecar(filepath.Join(s.dir, verifySidecar(name)), &result, "load verification "+name)
	if err != nil || !ok {
		return nil, err
	}
	return &result, nil
}

func (s *Store) writeSidecar(path string, v any, op string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &model.StorageError{Op: op, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &model.StorageError{Op: op, Err: err}
	}
	return nil
}

func (s *Store) readSidecar(path string, v any, op string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &model.StorageError{Op: op, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &model.StorageError{Op: op, Err: fmt.Errorf("parse sidecar: %w", err)}
	}
	return true, nil
}
