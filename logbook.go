package logbook

import (
	"context"
	"log/slog"

	"github.com/aretw0/logbook/internal/platform"
	"github.com/aretw0/logbook/pkg/core"
	"github.com/aretw0/logbook/pkg/git"
)

// --- Types ---

// Record is one log entry.
type Record = core.Record

// Service is the log service returned by New.
type Service = core.Service

// Schema is the ordered table of record fields.
type Schema = core.Schema

// Field describes one schema field.
type Field = core.Field

// Identity is the author and committer of changes.
type Identity = git.Identity

// --- Configuration ---

// Option defines a functional option for configuring a logbook.
type Option = platform.Option

// WithAutoInit creates the data directory and its git repository when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAuthor sets the identity of new records and commits.
func WithAuthor(id Identity) Option {
	return platform.WithAuthor(id)
}

// WithSchema replaces the default access log schema.
func WithSchema(s Schema) Option {
	return platform.WithSchema(s)
}

// WithShadowBranch names the branch used for synchronization.
func WithShadowBranch(name string) Option {
	return platform.WithShadowBranch(name)
}

// WithSyncRemote names the git remote configured for each sync session.
func WithSyncRemote(name string) Option {
	return platform.WithSyncRemote(name)
}

// WithStore allows injecting a custom store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithCollector sets the collaborator asking for field values.
func WithCollector(c core.Collector) Option {
	return platform.WithCollector(c)
}

// WithEditor sets the collaborator editing free-form text.
func WithEditor(e core.Editor) Option {
	return platform.WithEditor(e)
}

// WithPicker sets the collaborator choosing among ambiguous ids.
func WithPicker(p core.Picker) Option {
	return platform.WithPicker(p)
}

// WithConfirmer sets the collaborator confirming deletions.
func WithConfirmer(c core.Confirmer) Option {
	return platform.WithConfirmer(c)
}

// WithWatcherErrorHandler registers a callback for errors of the Watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithDevSafety controls the temporary sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New creates a log service on the data directory at path.
func New(ctx context.Context, path string, opts ...Option) (*core.Service, error) {
	return platform.New(ctx, path, opts...)
}

// Init initializes a data directory explicitly.
func Init(ctx context.Context, path string, opts ...Option) (core.Store, error) {
	return platform.Init(ctx, path, opts...)
}

// LoadSchema reads a TOML schema file. An empty path yields the default schema.
func LoadSchema(path string) (Schema, error) {
	return platform.LoadSchema(path)
}

// DefaultSchema is the access log schema.
func DefaultSchema() Schema {
	return core.DefaultSchema()
}

// --- Safety & Utils ---

// ResolveDataPath determines the actual data directory based on safety rules.
func ResolveDataPath(userPath string, forceTemp bool) string {
	return platform.ResolveDataPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a logbook data directory.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
