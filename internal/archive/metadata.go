package archive

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dukerupert/saveward/internal/model"
)

const (
	maxNotesLength = 500
	maxTags        = 10
	maxTagLength   = 50
)

var tagPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// NormalizeMetadata sanitizes operator-supplied notes and tags into a
// canonical ArchiveMetadata: notes trimmed with CRLF normalized, tags
// lower-cased and de-duplicated preserving first occurrence. Inputs
// outside the allowed ranges produce a ValidationError listing every
// offending field.
func NormalizeMetadata(notes string, tags []string) (model.ArchiveMetadata, error) {
	fields := make(map[string]string)

	notes = strings.TrimSpace(strings.ReplaceAll(notes, "\r\n", "\n"))
	if len(notes) > maxNotesLength {
		fields["notes"] = fmt.Sprintf("must be at most %d characters", maxNotesLength)
	}

	if len(tags) > maxTags {
		fields["tags"] = fmt.Sprintf("at most %d tags allowed", maxTags)
	}

	seen := make(map[string]bool, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if len(tag) > maxTagLength {
			fields["tags"] = fmt.Sprintf("tags must be at most %d characters", maxTagLength)
			continue
		}
		if !tagPattern.MatchString(tag) {
			fields["tags"] = "tags may only contain letters, digits, hyphen, and underscore"
			continue
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	if len(normalized) == 0 {
		normalized = nil
	}

	if len(fields) > 0 {
		return model.ArchiveMetadata{}, &model.ValidationError{Fields: fields}
	}

	return model.ArchiveMetadata{Notes: notes, Tags: normalized}, nil
}
