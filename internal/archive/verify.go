package archive

import (
	"time"

	"github.com/dukerupert/saveward/internal/model"
)

// Verifier confirms archives are readable, well-formed gzipped tar
// streams. Verification is a pure read of the archive's current bytes;
// it never mutates the archive or the save directory.
type Verifier struct {
	store *Store
	now   func() time.Time
}

// NewVerifier creates a Verifier over the given store.
func NewVerifier(store *Store) *Verifier {
	return &Verifier{store: store, now: time.Now}
}

// Verify walks every entry of the named archive and records the result
// as its .verify.json sidecar. A read or parse error classifies the
// archive as failed rather than returning an error; only a missing
// archive or a sidecar write failure is an error to the caller.
// VerifiedAt is set to the current time regardless of outcome.
func (v *Verifier) Verify(name string) (model.VerificationResult, error) {
	if !v.store.Exists(name) {
		return model.VerificationResult{}, &model.NotFoundError{Resource: "archive", Name: name}
	}

	result := model.VerificationResult{
		Status:     model.VerificationVerified,
		VerifiedAt: v.now().Unix(),
	}

	count, err := countTarEntries(v.store.Path(name))
	if err != nil {
		result.Status = model.VerificationFailed
		result.FileCount = 0
		result.Error = err.Error()
	} else {
		result.FileCount = count
	}

	if err := v.store.SaveVerification(name, result); err != nil {
		return result, err
	}
	return result, nil
}
