package offsite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/saveward/internal/model"
)

type mockS3Client struct {
	putKeys    []string
	putBodies  [][]byte
	deleteKeys []string
	putErr     error
	failPuts   int
}

func (m *mockS3Client) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.failPuts > 0 {
		m.failPuts--
		return nil, errors.New("transient upload error")
	}
	if m.putErr != nil {
		return nil, m.putErr
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.putKeys = append(m.putKeys, *input.Key)
	m.putBodies = append(m.putBodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.deleteKeys = append(m.deleteKeys, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeArchive(t *testing.T, name string) (string, []byte) {
	t.Helper()
	content := []byte("pretend tar.gz bytes")
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path, content
}

func TestDisabledWithoutCredentials(t *testing.T) {
	r := NewReplicator(Config{Bucket: "backups"}, discardLogger())
	if r.Enabled() {
		t.Error("replicator enabled without credentials")
	}

	// Disabled replicator is a no-op, not an error.
	if err := r.Replicate(context.Background(), "/nonexistent", model.ArchiveRecord{Name: "x.tar.gz"}); err != nil {
		t.Errorf("disabled replicate: %v", err)
	}
	if err := r.Remove(context.Background(), "x.tar.gz"); err != nil {
		t.Errorf("disabled remove: %v", err)
	}
}

func TestReplicatePlain(t *testing.T) {
	mock := &mockS3Client{}
	r := &Replicator{
		cfg:    Config{Bucket: "backups", Prefix: "saveward"},
		client: mock,
		logger: discardLogger(),
	}

	name := "saves-2024-01-15-12-00-00.tar.gz"
	path, content := writeArchive(t, name)

	if err := r.Replicate(context.Background(), path, model.ArchiveRecord{Name: name}); err != nil {
		t.Fatalf("replicate: %v", err)
	}

	if len(mock.putKeys) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(mock.putKeys))
	}
	if mock.putKeys[0] != "saveward/"+name {
		t.Errorf("key = %q, want prefixed name", mock.putKeys[0])
	}
	if string(mock.putBodies[0]) != string(content) {
		t.Error("uploaded body differs from archive")
	}
}

func TestReplicateEncrypted(t *testing.T) {
	mock := &mockS3Client{}
	r := &Replicator{
		cfg:    Config{Bucket: "backups", Passphrase: "hunter2"},
		client: mock,
		logger: discardLogger(),
	}

	name := "saves-2024-01-15-12-00-00.tar.gz"
	path, content := writeArchive(t, name)

	if err := r.Replicate(context.Background(), path, model.ArchiveRecord{Name: name}); err != nil {
		t.Fatalf("replicate: %v", err)
	}

	if len(mock.putKeys) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(mock.putKeys))
	}
	if mock.putKeys[0] != name+".enc" {
		t.Errorf("key = %q, want %q", mock.putKeys[0], name+".enc")
	}
	if string(mock.putBodies[0]) == string(content) {
		t.Error("uploaded body is plaintext despite passphrase")
	}

	// The uploaded blob decrypts back to the original archive.
	dir := t.TempDir()
	encPath := filepath.Join(dir, "blob.enc")
	if err := os.WriteFile(encPath, mock.putBodies[0], 0o600); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	decPath := filepath.Join(dir, "blob")
	if err := decryptFile(encPath, decPath, "hunter2"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	plain, err := os.ReadFile(decPath)
	if err != nil {
		t.Fatalf("read decrypted: %v", err)
	}
	if string(plain) != string(content) {
		t.Error("decrypted body differs from archive")
	}
}

func TestReplicateRetriesTransientErrors(t *testing.T) {
	mock := &mockS3Client{failPuts: 2}
	r := &Replicator{
		cfg:    Config{Bucket: "backups"},
		client: mock,
		logger: discardLogger(),
	}

	name := "saves-2024-01-15-12-00-00.tar.gz"
	path, _ := writeArchive(t, name)

	if err := r.Replicate(context.Background(), path, model.ArchiveRecord{Name: name}); err != nil {
		t.Fatalf("replicate after transient errors: %v", err)
	}
	if len(mock.putKeys) != 1 {
		t.Errorf("expected exactly 1 successful upload, got %d", len(mock.putKeys))
	}
}

func TestRemove(t *testing.T) {
	mock := &mockS3Client{}
	r := &Replicator{
		cfg:    Config{Bucket: "backups", Prefix: "saveward", Passphrase: "hunter2"},
		client: mock,
		logger: discardLogger(),
	}

	if err := r.Remove(context.Background(), "saves-2024-01-15-12-00-00.tar.gz"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(mock.deleteKeys) != 1 {
		t.Fatalf("expected 1 delete, got %d", len(mock.deleteKeys))
	}
	if mock.deleteKeys[0] != "saveward/saves-2024-01-15-12-00-00.tar.gz.enc" {
		t.Errorf("delete key = %q", mock.deleteKeys[0])
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.WriteFile(src, []byte("save data"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	enc := filepath.Join(dir, "enc")
	if err := encryptFile(src, enc, "correct horse"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	dec := filepath.Join(dir, "dec")
	if err := decryptFile(enc, dec, "correct horse"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	data, err := os.ReadFile(dec)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "save data" {
		t.Errorf("round trip = %q", data)
	}

	if err := decryptFile(enc, dec, "wrong passphrase"); err == nil {
		t.Error("expected decrypt with wrong passphrase to fail")
	}
}
