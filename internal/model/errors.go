package model

import (
	"errors"
	"fmt"
)

// NotFoundError reports a referenced archive or container that does not
// exist. Handlers translate it to 404.
type NotFoundError struct {
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

// ValidationError carries field-level validation failures so a caller
// can surface all of them at once.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			return fmt.Sprintf("invalid %s: %s", field, msg)
		}
	}
	return fmt.Sprintf("validation failed on %d fields", len(e.Fields))
}

// StorageError wraps a filesystem or database failure underneath one of
// the engine's operations.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PreconditionError reports an operation rejected before any
// destructive action: restore while the server is running, a second
// concurrent restore, and the like.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

// PartialFailureError reports a restore that failed after its
// destructive phase began. The save directory may be partially deleted;
// the safety backup is the recovery path.
type PartialFailureError struct {
	Stage string
	Err   error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("restore failed during %s: %v", e.Stage, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
