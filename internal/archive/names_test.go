package archive

import (
	"testing"
	"time"
)

func TestAutomaticName(t *testing.T) {
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	got := AutomaticName(ts)
	want := "saves-2024-01-15-12-00-00.tar.gz"
	if got != want {
		t.Errorf("AutomaticName = %q, want %q", got, want)
	}
}

func TestSafetyName(t *testing.T) {
	ts := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)
	got := SafetyName(ts)
	want := "pre-restore-2024-06-30-23-59-59.tar.gz"
	if got != want {
		t.Errorf("SafetyName = %q, want %q", got, want)
	}
}

func TestIsAutomatic(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"saves-2024-01-15-12-00-00.tar.gz", true},
		{"pre-restore-2024-01-15-12-00-00.tar.gz", false},
		{"my-manual-backup.tar.gz", false},
		{"saves-2024-01-15-12-00-00.zip", false},
		{"saves-", false},
	}
	for _, tt := range tests {
		if got := IsAutomatic(tt.name); got != tt.want {
			t.Errorf("IsAutomatic(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"saves-2024-01-15-12-00-00.tar.gz", true},
		{"pre-restore-2024-01-15-12-00-00.tar.gz", true},
		{"", false},
		{"../escape.tar.gz", false},
		{"sub/dir.tar.gz", false},
		{"plain.txt", false},
	}
	for _, tt := range tests {
		if got := validName(tt.name); got != tt.want {
			t.Errorf("validName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
