package core

import "context"

// Store defines the contract of the record engine.
// Adhering to this interface keeps the service independent of the storage encoding
// and of the version-control backend that records every mutation.
type Store interface {
	// Schema returns the field table records are validated and encoded with.
	Schema() Schema

	// ConvertFields applies the schema conversions to raw stored values.
	ConvertFields(raw map[string]string) (Fields, error)

	// Save persists a record and commits it. An empty ID is assigned from the content.
	// When old is given the commit references the version it supersedes.
	Save(ctx context.Context, rec *Record, old *Record) error

	// Load retrieves a record by its exact identifier.
	Load(ctx context.Context, id string) (Record, error)

	// AllIDs returns every live identifier of the current snapshot.
	AllIDs(ctx context.Context) ([]string, error)

	// Delete removes each record whose pre action confirms it, one commit per record.
	Delete(ctx context.Context, ids []string, pre func(Record) bool, post func(Record)) error

	// LastLogs returns the n most recently committed live records, newest first.
	LastLogs(ctx context.Context, n int) ([]Record, error)

	// History returns every committed version of a record, newest first.
	History(ctx context.Context, id string) ([]Version, error)

	// Initialize ensures the underlying storage is ready (directory, git init, first commit).
	Initialize(ctx context.Context) error
}

// Watchable is implemented by stores that can report changes made on disk.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Syncer exposes the shadow-history primitives of the version-control backend.
type Syncer interface {
	// ShadowInit idempotently prepares the shadow history.
	ShadowInit(ctx context.Context) error

	// SetRemote idempotently configures the remote used by this sync session.
	SetRemote(ctx context.Context, remote string) error

	// ShadowPush pushes the shadow history to remote.
	ShadowPush(ctx context.Context, remote string) (SyncStatus, string)

	// ShadowFetch retrieves the remote shadow history into the local staging ref.
	ShadowFetch(ctx context.Context, remote string) error

	// ShadowMerge merges the staging ref into the shadow history.
	ShadowMerge(ctx context.Context, remote string) (SyncStatus, string)
}

// Request describes one value to collect from the user.
type Request struct {
	Name        string
	Default     string
	Type        FieldType
	Description string
}

// Collector gathers values for a set of requests, keyed by request name.
// Any error aborts the current operation before anything is saved.
type Collector interface {
	Collect(ctx context.Context, reqs []Request) (map[string]string, error)
}

// Editor lets the user edit free-form text.
type Editor interface {
	Edit(ctx context.Context, initial []byte) ([]byte, error)
}

// Picker chooses one identifier among several matches of a partial identifier.
type Picker interface {
	Pick(ctx context.Context, prompt string, ids []string) (string, error)
}

// Confirmer asks whether a record should be deleted.
type Confirmer interface {
	Confirm(ctx context.Context, rec Record) (bool, error)
}
