// Package retention decides which archives the scheduler prunes. It is
// pure selection with no I/O; deletion is the caller's job.
package retention

import (
	"sort"

	"github.com/dukerupert/saveward/internal/archive"
	"github.com/dukerupert/saveward/internal/model"
)

// SelectForDeletion returns the automatic archives that exceed the
// retention count, oldest first. Safety and manually named archives are
// categorically exempt regardless of age or count. A non-positive
// maxToKeep is invalid input rejected upstream by settings validation;
// it selects nothing here.
func SelectForDeletion(archives []model.ArchiveRecord, maxToKeep int) []model.ArchiveRecord {
	if maxToKeep <= 0 {
		return nil
	}

	candidates := make([]model.ArchiveRecord, 0, len(archives))
	for _, a := range archives {
		if archive.IsAutomatic(a.Name) {
			candidates = append(candidates, a)
		}
	}

	if len(candidates) <= maxToKeep {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt != candidates[j].CreatedAt {
			return candidates[i].CreatedAt < candidates[j].CreatedAt
		}
		return candidates[i].Name < candidates[j].Name
	})

	return candidates[:len(candidates)-maxToKeep]
}
