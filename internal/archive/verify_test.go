package archive

import (
	"os"
	"testing"

	"github.com/dukerupert/saveward/internal/model"
)

func TestVerifyCountsEntries(t *testing.T) {
	store, saveDir := setupStore(t)
	verifier := NewVerifier(store)

	record, err := store.Create(saveDir)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := verifier.Verify(record.Name)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Status != model.VerificationVerified {
		t.Fatalf("status = %q, want verified (error: %s)", result.Status, result.Error)
	}
	// 3 files + 1 directory
	if result.FileCount != 4 {
		t.Errorf("file count = %d, want 4", result.FileCount)
	}
	if result.VerifiedAt == 0 {
		t.Error("verifiedAt not set")
	}

	// Result is persisted as the sidecar and surfaced by List.
	loaded, err := store.LoadVerification(record.Name)
	if err != nil {
		t.Fatalf("load verification: %v", err)
	}
	if loaded == nil || loaded.Status != model.VerificationVerified {
		t.Errorf("sidecar verification = %+v", loaded)
	}
}

func TestVerifyIdempotent(t *testing.T) {
	store, saveDir := setupStore(t)
	verifier := NewVerifier(store)

	record, err := store.Create(saveDir)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := verifier.Verify(record.Name)
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	second, err := verifier.Verify(record.Name)
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}

	if first.Status != second.Status || first.FileCount != second.FileCount {
		t.Errorf("verification not idempotent: %+v vs %+v", first, second)
	}
}

func TestVerifyCorruptArchive(t *testing.T) {
	store, _ := setupStore(t)
	verifier := NewVerifier(store)

	name := "saves-2024-02-02-02-02-02.tar.gz"
	if err := os.WriteFile(store.Path(name), []byte("this is not a gzip stream"), 0o644); err != nil {
		t.Fatalf("write corrupt archive: %v", err)
	}

	result, err := verifier.Verify(name)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Status != model.VerificationFailed {
		t.Errorf("status = %q, want failed", result.Status)
	}
	if result.FileCount != 0 {
		t.Errorf("file count = %d, want 0", result.FileCount)
	}
	if result.Error == "" {
		t.Error("expected error message on failed verification")
	}
}

func TestVerifyMissingIsNotFound(t *testing.T) {
	store, _ := setupStore(t)
	verifier := NewVerifier(store)

	_, err := verifier.Verify("saves-2099-01-01-00-00-00.tar.gz")
	if !model.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
