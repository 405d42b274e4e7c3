package restore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dukerupert/saveward/internal/archive"
	"github.com/dukerupert/saveward/internal/database"
	"github.com/dukerupert/saveward/internal/gamesrv"
	"github.com/dukerupert/saveward/internal/model"
	"github.com/dukerupert/saveward/internal/store"
)

type fakeGateway struct {
	status gamesrv.Status
	err    error
}

func (g *fakeGateway) Status(ctx context.Context) (gamesrv.Status, error) { return g.status, g.err }
func (g *fakeGateway) Start(ctx context.Context) (gamesrv.Status, error) {
	return gamesrv.StatusRunning, nil
}
func (g *fakeGateway) Stop(ctx context.Context) (gamesrv.Status, error) {
	return gamesrv.StatusExited, nil
}

type fixture struct {
	orchestrator *Orchestrator
	archives     *archive.Store
	settings     *store.SettingsStore
	gateway      *fakeGateway
	saveDir      string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	saveDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(saveDir, "region"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range map[string]string{
		"level.dat":        "old level",
		"region/r.0.0.mca": "old chunks",
	} {
		if err := os.WriteFile(filepath.Join(saveDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	archives, err := archive.NewStore(filepath.Join(t.TempDir(), "backups"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gateway := &fakeGateway{status: gamesrv.StatusExited}
	settings := store.NewSettingsStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		orchestrator: New(saveDir, &sync.Mutex{}, archives, settings, gateway, logger),
		archives:     archives,
		settings:     settings,
		gateway:      gateway,
		saveDir:      saveDir,
	}
}

// snapshot archives the fixture's current save tree, then mutates it so
// a successful restore is observable.
func snapshot(t *testing.T, f *fixture) string {
	t.Helper()
	record, err := f.archives.Create(f.saveDir)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	if err := os.WriteFile(filepath.Join(f.saveDir, "level.dat"), []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("mutate save: %v", err)
	}
	return record.Name
}

func TestRestoreHappyPath(t *testing.T) {
	f := setup(t)
	name := snapshot(t, f)

	var events []model.RestoreProgress
	err := f.orchestrator.Restore(context.Background(), name, func(p model.RestoreProgress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(f.saveDir, "level.dat"))
	if err != nil {
		t.Fatalf("read restored file: %v", err)
	}
	if string(data) != "old level" {
		t.Errorf("restored content = %q, want original", data)
	}

	if len(events) < 4 {
		t.Fatalf("expected at least 4 progress events, got %d", len(events))
	}
	if events[0].Stage != model.StageStarting || events[0].Percent != 0 {
		t.Errorf("first event = %+v, want starting at 0", events[0])
	}
	last := events[len(events)-1]
	if last.Stage != model.StageComplete || last.Percent != 100 {
		t.Errorf("last event = %+v, want complete at 100", last)
	}
	if last.SafetyBackupName == "" || last.SafetyBackupName == name {
		t.Errorf("safety backup name = %q, want distinct from %q", last.SafetyBackupName, name)
	}
	if !f.archives.Exists(last.SafetyBackupName) {
		t.Error("safety backup archive missing")
	}

	wantOrder := map[model.RestoreStage]int{
		model.StageStarting:     0,
		model.StageSafetyBackup: 1,
		model.StageDeleting:     2,
		model.StageExtracting:   3,
		model.StageComplete:     4,
	}
	prevStage, prevPercent := -1, -1
	for i, e := range events {
		if e.Archive != name {
			t.Errorf("event %d archive = %q, want %q", i, e.Archive, name)
		}
		rank, ok := wantOrder[e.Stage]
		if !ok {
			t.Errorf("unexpected stage %q", e.Stage)
			continue
		}
		if rank < prevStage {
			t.Errorf("stage %q after later stage", e.Stage)
		}
		if e.Percent < prevPercent {
			t.Errorf("percent regressed: %d after %d at stage %q", e.Percent, prevPercent, e.Stage)
		}
		prevStage, prevPercent = rank, e.Percent
	}
}

func TestRestoreSkipsSafetyWhenDisabled(t *testing.T) {
	f := setup(t)
	name := snapshot(t, f)

	if err := f.settings.Save(model.BackupSettings{IntervalSeconds: 3600, MaxArchivesToKeep: 10, AutoSafetyBackup: false}); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	var stages []model.RestoreStage
	err := f.orchestrator.Restore(context.Background(), name, func(p model.RestoreProgress) {
		stages = append(stages, p.Stage)
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	sawSkip := false
	for _, s := range stages {
		if s == model.StageSafetyBackup {
			t.Error("safety backup ran while disabled")
		}
		if s == model.StageSkippingSafetyBackup {
			sawSkip = true
		}
	}
	if !sawSkip {
		t.Error("expected skipping_safety_backup stage")
	}

	records, err := f.archives.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range records {
		if !archive.IsAutomatic(r.Name) {
			t.Errorf("unexpected non-automatic archive %q", r.Name)
		}
	}
}

func TestRestoreRejectsRunningServer(t *testing.T) {
	f := setup(t)
	name := snapshot(t, f)
	f.gateway.status = gamesrv.StatusRunning

	called := false
	err := f.orchestrator.Restore(context.Background(), name, func(model.RestoreProgress) { called = true })

	var pe *model.PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if called {
		t.Error("progress emitted before precondition checks passed")
	}

	// Nothing was touched.
	data, err := os.ReadFile(filepath.Join(f.saveDir, "level.dat"))
	if err != nil {
		t.Fatalf("read save file: %v", err)
	}
	if string(data) != "corrupted" {
		t.Error("save directory mutated despite rejected restore")
	}
}

func TestRestoreMissingArchive(t *testing.T) {
	f := setup(t)

	err := f.orchestrator.Restore(context.Background(), "saves-2099-01-01-00-00-00.tar.gz", nil)
	if !model.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRestoreSingleFlight(t *testing.T) {
	f := setup(t)
	name := snapshot(t, f)

	release := make(chan struct{})
	firstDone := make(chan error, 1)
	started := make(chan struct{})

	var once sync.Once
	go func() {
		firstDone <- f.orchestrator.Restore(context.Background(), name, func(model.RestoreProgress) {
			once.Do(func() { close(started) })
			<-release
		})
	}()

	<-started
	err := f.orchestrator.Restore(context.Background(), name, nil)
	var pe *model.PreconditionError
	if !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError for concurrent restore, got %v", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first restore: %v", err)
	}
	if f.orchestrator.InProgress() {
		t.Error("restore still marked in progress")
	}
}
