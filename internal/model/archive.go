package model

// VerificationStatus classifies the result of an archive integrity check.
type VerificationStatus string

const (
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
	VerificationPending  VerificationStatus = "pending"
	VerificationUnknown  VerificationStatus = "unknown"
)

// VerificationResult is the outcome of reading an archive end to end.
// It is persisted as the archive's .verify.json sidecar.
type VerificationResult struct {
	Status     VerificationStatus `json:"status"`
	FileCount  int                `json:"file_count"`
	VerifiedAt int64              `json:"verified_at"`
	Error      string             `json:"error,omitempty"`
}

// ArchiveMetadata holds the operator-supplied notes and tags for one
// archive, persisted as its .meta.json sidecar.
type ArchiveMetadata struct {
	Notes string   `json:"notes,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// Empty reports whether the metadata carries nothing worth persisting.
func (m ArchiveMetadata) Empty() bool {
	return m.Notes == "" && len(m.Tags) == 0
}

// ArchiveRecord is one backup unit: a tar.gz file in the backup
// directory plus its optional sidecars. Name is the unique identifier.
type ArchiveRecord struct {
	Name         string              `json:"name"`
	SizeBytes    int64               `json:"size_bytes"`
	CreatedAt    int64               `json:"created_at"`
	Notes        string              `json:"notes,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
}
