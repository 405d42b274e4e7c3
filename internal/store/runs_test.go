package store

import (
	"testing"

	"github.com/dukerupert/saveward/internal/model"
)

func TestRunLifecycle(t *testing.T) {
	runs := NewRunStore(setupDB(t))

	run, err := runs.Begin(model.RunKindScheduled)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if run.ID == 0 {
		t.Error("expected non-zero run id")
	}
	if run.Status != model.RunStatusRunning {
		t.Errorf("status = %q, want running", run.Status)
	}

	if err := runs.Complete(run.ID, "saves-2024-01-15-12-00-00.tar.gz", 2048, 4); err != nil {
		t.Fatalf("complete: %v", err)
	}

	listed, err := runs.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 run, got %d", len(listed))
	}
	got := listed[0]
	if got.Status != model.RunStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.ArchiveName != "saves-2024-01-15-12-00-00.tar.gz" {
		t.Errorf("archive name = %q", got.ArchiveName)
	}
	if got.SizeBytes != 2048 || got.FileCount != 4 {
		t.Errorf("size/count = %d/%d, want 2048/4", got.SizeBytes, got.FileCount)
	}
	if got.CompletedAt == nil {
		t.Error("expected completedAt to be set")
	}
}

func TestRunFailure(t *testing.T) {
	runs := NewRunStore(setupDB(t))

	run, err := runs.Begin(model.RunKindManual)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := runs.Fail(run.ID, "save directory unreadable"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	listed, err := runs.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 run, got %d", len(listed))
	}
	if listed[0].Status != model.RunStatusFailed {
		t.Errorf("status = %q, want failed", listed[0].Status)
	}
	if listed[0].ErrorMessage != "save directory unreadable" {
		t.Errorf("error message = %q", listed[0].ErrorMessage)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	runs := NewRunStore(setupDB(t))

	var ids []int64
	for i := 0; i < 5; i++ {
		run, err := runs.Begin(model.RunKindScheduled)
		if err != nil {
			t.Fatalf("begin %d: %v", i, err)
		}
		ids = append(ids, run.ID)
	}

	listed, err := runs.List(3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(listed))
	}
	// Runs begun in the same second tiebreak on id descending.
	if listed[0].ID != ids[4] {
		t.Errorf("first run id = %d, want %d", listed[0].ID, ids[4])
	}
}

func TestLatestCompleted(t *testing.T) {
	runs := NewRunStore(setupDB(t))

	latest, err := runs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest on empty table: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil on empty table, got %+v", latest)
	}

	failed, err := runs.Begin(model.RunKindScheduled)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := runs.Fail(failed.ID, "boom"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	completed, err := runs.Begin(model.RunKindScheduled)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := runs.Complete(completed.ID, "saves-2024-03-01-00-00-00.tar.gz", 100, 2); err != nil {
		t.Fatalf("complete: %v", err)
	}

	latest, err = runs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.ID != completed.ID {
		t.Errorf("latest = %+v, want run %d", latest, completed.ID)
	}
}
