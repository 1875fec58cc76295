package core

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors. Check them with errors.Is; the typed errors below carry the details.
var (
	// ErrValidation is returned when a required field is missing or a value cannot be converted.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an identifier does not name a live record.
	ErrNotFound = errors.New("record not found")

	// ErrAmbiguousID is returned when a partial identifier matches several records
	// and no picker was configured to choose among them.
	ErrAmbiguousID = errors.New("ambiguous record id")

	// ErrEmptyInput is returned when interactive free-form text resolves to nothing.
	ErrEmptyInput = errors.New("empty input")

	// ErrAborted is returned when a collaborator gave up on the current operation.
	ErrAborted = errors.New("operation aborted")

	// ErrNoSyncer is returned by Push and Fetch when the service has no version-control adapter.
	ErrNoSyncer = errors.New("synchronization is not configured")
)

// ValidationError reports missing required fields or a value that failed conversion.
type ValidationError struct {
	Missing []string
	Field   string
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("required field(s) missing: %s", strings.Join(e.Missing, ", "))
	}
	if e.Field != "" {
		return fmt.Sprintf("field %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError names the identifier that did not resolve.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found", e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AmbiguousIDError lists every record a partial identifier matched.
type AmbiguousIDError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("%s matches %d records: %s", e.Prefix, len(e.Matches), strings.Join(e.Matches, ", "))
}

func (e *AmbiguousIDError) Is(target error) bool { return target == ErrAmbiguousID }

// SyncError is the soft failure of a push or fetch. It carries the adapter status
// and the backend diagnostic for the operator.
type SyncError struct {
	Op         string
	Status     SyncStatus
	Diagnostic string
	Hint       string
}

func (e *SyncError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(" failed (")
	sb.WriteString(e.Status.String())
	sb.WriteString(")")
	if e.Hint != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Hint)
	}
	if d := strings.TrimSpace(e.Diagnostic); d != "" {
		sb.WriteString("\n")
		sb.WriteString(d)
	}
	return sb.String()
}

// IsUserActionRequired returns true if the error needs the operator to step in
// (resolve a conflict, pick among several ids, re-supply input).
func IsUserActionRequired(err error) bool {
	if err == nil {
		return false
	}
	var se *SyncError
	if errors.As(err, &se) && se.Status == SyncConflict {
		return true
	}
	return errors.Is(err, ErrAmbiguousID) || errors.Is(err, ErrValidation) || errors.Is(err, ErrEmptyInput)
}
