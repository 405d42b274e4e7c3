// Package restore drives the restore state machine: optional safety
// backup, delete the current save tree, extract the chosen archive,
// with staged progress reporting throughout.
package restore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dukerupert/saveward/internal/archive"
	"github.com/dukerupert/saveward/internal/gamesrv"
	"github.com/dukerupert/saveward/internal/model"
	"github.com/dukerupert/saveward/internal/store"
)

// Progress percent checkpoints. Delete progress is mapped into
// [deleteStart, deleteEnd] proportional to entries removed.
const (
	percentStarting    = 0
	percentSafetyBegin = 5
	percentSafetyDone  = 15
	deleteStart        = 20
	deleteEnd          = 50
	percentExtract     = 50
	percentComplete    = 100
)

// ProgressSink receives progress events as the restore advances. It is
// a plain callback; transport adapters decide the wire format.
type ProgressSink func(model.RestoreProgress)

// Orchestrator runs restores. Only one restore may be active at a
// time; it holds the save-directory lock (shared with the scheduler)
// for its full duration.
type Orchestrator struct {
	saveDir  string
	saveMu   *sync.Mutex
	archives *archive.Store
	settings *store.SettingsStore
	gateway  gamesrv.Gateway
	logger   *slog.Logger

	inFlight atomic.Bool
}

// New creates an Orchestrator. saveMu must be the same lock the
// scheduler serializes archive creation on.
func New(saveDir string, saveMu *sync.Mutex, archives *archive.Store, settings *store.SettingsStore, gateway gamesrv.Gateway, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		saveDir:  saveDir,
		saveMu:   saveMu,
		archives: archives,
		settings: settings,
		gateway:  gateway,
		logger:   logger,
	}
}

// InProgress reports whether a restore is currently running.
func (o *Orchestrator) InProgress() bool {
	return o.inFlight.Load()
}

// Restore replaces the save directory's contents with the named
// archive. Preconditions (server stopped, archive present, no other
// restore in flight) are rejected before any event is emitted or any
// byte is touched. Once the delete phase begins there is no
// cancellation: the operation runs to completion or ends in a terminal
// error event, with the safety backup as the recovery path.
func (o *Orchestrator) Restore(ctx context.Context, name string, sink ProgressSink) error {
	if !o.inFlight.CompareAndSwap(false, true) {
		return &model.PreconditionError{Reason: "another restore is already in progress"}
	}
	defer o.inFlight.Store(false)

	status, err := o.gateway.Status(ctx)
	if err != nil {
		return fmt.Errorf("check server status: %w", err)
	}
	if !status.SafeForRestore() {
		return &model.PreconditionError{
			Reason: fmt.Sprintf("game server is %s; stop it before restoring", status),
		}
	}

	if !o.archives.Exists(name) {
		return &model.NotFoundError{Resource: "archive", Name: name}
	}

	o.saveMu.Lock()
	defer o.saveMu.Unlock()

	emit := func(p model.RestoreProgress) {
		p.Archive = name
		if sink != nil {
			sink(p)
		}
	}

	startMsg := "restore starting"
	if v, err := o.archives.LoadVerification(name); err == nil && v != nil && v.Status == model.VerificationFailed {
		startMsg = "restore starting; warning: archive previously failed verification"
	}
	emit(model.RestoreProgress{Stage: model.StageStarting, Percent: percentStarting, Message: startMsg})

	safetyName := ""
	if o.settings.Load().AutoSafetyBackup {
		emit(model.RestoreProgress{Stage: model.StageSafetyBackup, Percent: percentSafetyBegin, Message: "creating safety backup"})

		// A failed safety backup aborts before anything destructive;
		// the save directory is untouched.
		safety, err := o.archives.CreateSafety(o.saveDir)
		if err != nil {
			return fmt.Errorf("safety backup: %w", err)
		}
		safetyName = safety.Name
		o.logger.Info("safety backup created", "archive", safetyName)
		emit(model.RestoreProgress{
			Stage:            model.StageSafetyBackup,
			Percent:          percentSafetyDone,
			Message:          "safety backup created",
			SafetyBackupName: safetyName,
		})
	} else {
		emit(model.RestoreProgress{Stage: model.StageSkippingSafetyBackup, Percent: percentSafetyDone, Message: "safety backup disabled, skipping"})
	}

	if err := o.deletePhase(emit); err != nil {
		perr := &model.PartialFailureError{Stage: "deleting", Err: err}
		emit(model.RestoreProgress{Stage: model.StageError, Percent: deleteEnd, Error: perr.Error(), SafetyBackupName: safetyName})
		return perr
	}

	emit(model.RestoreProgress{Stage: model.StageExtracting, Percent: percentExtract, Message: "extracting " + name})
	if err := o.archives.Extract(name, o.saveDir); err != nil {
		perr := &model.PartialFailureError{Stage: "extracting", Err: err}
		emit(model.RestoreProgress{Stage: model.StageError, Percent: percentExtract, Error: perr.Error(), SafetyBackupName: safetyName})
		return perr
	}

	o.logger.Info("restore complete", "archive", name, "safety_backup", safetyName)
	emit(model.RestoreProgress{
		Stage:            model.StageComplete,
		Percent:          percentComplete,
		Message:          "restore complete",
		SafetyBackupName: safetyName,
	})
	return nil
}

// deletePhase removes every entry in the save directory, reporting
// progress per entry so large save trees restore observably rather
// than as one opaque step.
func (o *Orchestrator) deletePhase(emit func(model.RestoreProgress)) error {
	entries, err := os.ReadDir(o.saveDir)
	if err != nil {
		return fmt.Errorf("read save directory: %w", err)
	}

	emit(model.RestoreProgress{Stage: model.StageDeleting, Percent: deleteStart, Message: fmt.Sprintf("deleting %d entries", len(entries))})

	for i, entry := range entries {
		if err := os.RemoveAll(filepath.Join(o.saveDir, entry.Name())); err != nil {
			return fmt.Errorf("delete %s: %w", entry.Name(), err)
		}
		percent := deleteStart + (i+1)*(deleteEnd-deleteStart)/len(entries)
		emit(model.RestoreProgress{Stage: model.StageDeleting, Percent: percent})
	}
	return nil
}
