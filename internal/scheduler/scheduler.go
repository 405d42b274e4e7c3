// Package scheduler runs the periodic backup loop: load settings,
// create an archive, verify it, prune old ones, record health.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/saveward/internal/archive"
	"github.com/dukerupert/saveward/internal/model"
	"github.com/dukerupert/saveward/internal/retention"
	"github.com/dukerupert/saveward/internal/store"
)

// floorWait is the hard minimum between iterations, enforced even if
// persisted settings somehow specify less.
const floorWait = time.Minute

// HealthCallback is invoked whenever the scheduler's health state
// changes, so a transport layer can push it to observers.
type HealthCallback func(model.HealthState)

// Replicator mirrors archives to offsite storage. Implementations must
// tolerate being called concurrently with local pruning.
type Replicator interface {
	Enabled() bool
	Replicate(ctx context.Context, path string, record model.ArchiveRecord) error
	Remove(ctx context.Context, name string) error
}

// Scheduler owns the backup loop and the process's health state. All
// backup attempts, scheduled and manual, run through the same
// create-verify-prune pipeline, serialized on the save-directory lock
// it shares with the restore orchestrator.
type Scheduler struct {
	mu     sync.RWMutex
	health model.HealthState

	saveDir    string
	saveMu     *sync.Mutex
	archives   *archive.Store
	verifier   *archive.Verifier
	settings   *store.SettingsStore
	runs       *store.RunStore
	replicator Replicator
	callback   HealthCallback
	logger     *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Scheduler. saveMu is the exclusive save-directory lock
// shared with the restore orchestrator; replicator and callback may be
// nil.
func New(saveDir string, saveMu *sync.Mutex, archives *archive.Store, verifier *archive.Verifier, settings *store.SettingsStore, runs *store.RunStore, replicator Replicator, callback HealthCallback, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		saveDir:    saveDir,
		saveMu:     saveMu,
		archives:   archives,
		verifier:   verifier,
		settings:   settings,
		runs:       runs,
		replicator: replicator,
		callback:   callback,
		logger:     logger,
	}
}

// Start begins the backup loop. It returns immediately; the loop runs
// until Stop or context cancellation, and a failed iteration never
// terminates it.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	s.done = done
	s.health.SchedulerActive = true
	health := s.health
	s.mu.Unlock()
	s.notify(health)

	go func() {
		defer close(done)
		for {
			if _, err := s.RunOnce(ctx, model.RunKindScheduled); err != nil {
				s.logger.Error("scheduled backup failed", "error", err)
			}

			wait := time.Duration(s.settings.Load().IntervalSeconds) * time.Second
			if wait < floorWait {
				wait = floorWait
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
}

// Stop halts the loop, letting an in-progress iteration finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	s.mu.Lock()
	s.health.SchedulerActive = false
	health := s.health
	s.mu.Unlock()
	s.notify(health)
}

// Health returns a copy of the current health state.
func (s *Scheduler) Health() model.HealthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// RunOnce executes one create-verify-prune iteration and records the
// outcome in health state and run history. A manual trigger calls this
// directly; it does not disturb the loop's next scheduled tick.
func (s *Scheduler) RunOnce(ctx context.Context, kind model.RunKind) (model.ArchiveRecord, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	settings := s.settings.Load()

	run, err := s.runs.Begin(kind)
	if err != nil {
		s.logger.Error("record backup run", "error", err)
	}

	record, err := s.archives.Create(s.saveDir)
	if err != nil {
		s.recordFailure(run, err)
		return model.ArchiveRecord{}, err
	}

	result, err := s.verifier.Verify(record.Name)
	if err != nil {
		s.recordFailure(run, err)
		return record, err
	}
	if result.Status == model.VerificationFailed {
		err := fmt.Errorf("archive %s failed verification: %s", record.Name, result.Error)
		s.recordFailure(run, err)
		return record, err
	}

	if err := s.Prune(ctx, settings.MaxArchivesToKeep); err != nil {
		s.recordFailure(run, err)
		return record, err
	}

	if s.replicator != nil && s.replicator.Enabled() {
		if err := s.replicator.Replicate(ctx, s.archives.Path(record.Name), record); err != nil {
			// Offsite is best-effort: the local backup succeeded.
			s.logger.Warn("offsite replication failed", "archive", record.Name, "error", err)
		}
	}

	if run != nil {
		if err := s.runs.Complete(run.ID, record.Name, record.SizeBytes, result.FileCount); err != nil {
			s.logger.Error("complete backup run", "error", err)
		}
	}

	s.mu.Lock()
	s.health.LastSuccessfulBackup = time.Now().Unix()
	s.health.LastError = ""
	health := s.health
	s.mu.Unlock()
	s.notify(health)

	s.logger.Info("backup complete", "archive", record.Name, "size_bytes", record.SizeBytes, "file_count", result.FileCount, "kind", kind)
	return record, nil
}

// Prune deletes automatic archives beyond maxToKeep, oldest first.
// Archives that disappear concurrently are treated as already deleted.
func (s *Scheduler) Prune(ctx context.Context, maxToKeep int) error {
	archives, err := s.archives.List()
	if err != nil {
		return err
	}

	for _, victim := range retention.SelectForDeletion(archives, maxToKeep) {
		if err := s.archives.Delete(victim.Name); err != nil {
			if model.IsNotFound(err) {
				continue
			}
			return err
		}
		s.logger.Info("pruned archive", "archive", victim.Name)

		if s.replicator != nil && s.replicator.Enabled() {
			if err := s.replicator.Remove(ctx, victim.Name); err != nil {
				s.logger.Warn("offsite delete failed", "archive", victim.Name, "error", err)
			}
		}
	}
	return nil
}

func (s *Scheduler) recordFailure(run *model.BackupRun, err error) {
	if run != nil {
		if ferr := s.runs.Fail(run.ID, err.Error()); ferr != nil {
			s.logger.Error("record failed backup run", "error", ferr)
		}
	}

	// A failure suppresses updating LastSuccessfulBackup but never
	// erases it.
	s.mu.Lock()
	s.health.LastFailedBackup = time.Now().Unix()
	s.health.LastError = err.Error()
	health := s.health
	s.mu.Unlock()
	s.notify(health)
}

func (s *Scheduler) notify(health model.HealthState) {
	if s.callback != nil {
		s.callback(health)
	}
}
