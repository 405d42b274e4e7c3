package archive

import (
	"strings"
	"time"
)

// Archive naming convention. The prefix decides retention behavior:
// only "saves-" archives are subject to pruning, "pre-restore-"
// safety snapshots are exempt, as is anything else an operator drops
// into the backup directory.
const (
	AutomaticPrefix = "saves-"
	SafetyPrefix    = "pre-restore-"
	Suffix          = ".tar.gz"

	timestampLayout = "2006-01-02-15-04-05"
)

// AutomaticName returns the archive filename for a scheduler or manual
// backup taken at t.
func AutomaticName(t time.Time) string {
	return AutomaticPrefix + t.UTC().Format(timestampLayout) + Suffix
}

// SafetyName returns the archive filename for a pre-restore safety
// snapshot taken at t.
func SafetyName(t time.Time) string {
	return SafetyPrefix + t.UTC().Format(timestampLayout) + Suffix
}

// IsAutomatic reports whether name follows the automatic-backup
// convention and is therefore prunable.
func IsAutomatic(name string) bool {
	return strings.HasPrefix(name, AutomaticPrefix) && strings.HasSuffix(name, Suffix)
}

// IsArchiveName reports whether name looks like an archive file at all.
func IsArchiveName(name string) bool {
	return strings.HasSuffix(name, Suffix)
}

func metaSidecar(name string) string   { return name + ".meta.json" }
func verifySidecar(name string) string { return name + ".verify.json" }

// validName rejects anything that could escape the backup directory.
func validName(name string) bool {
	if name == "" || !strings.HasSuffix(name, Suffix) {
		return false
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return false
	}
	return true
}
