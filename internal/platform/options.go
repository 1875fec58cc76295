package platform

import (
	"log/slog"

	"github.com/aretw0/logbook/pkg/core"
	"github.com/aretw0/logbook/pkg/git"
)

// options holds the internal configuration for a logbook.
type options struct {
	store        core.Store
	syncer       core.Syncer
	logger       *slog.Logger
	autoInit     bool
	mustExist    bool
	forceTemp    bool
	devSafety    bool
	identity     git.Identity
	schema       core.Schema
	shadowBranch string
	syncRemote   string
	errorHandler func(error)
	service      []core.ServiceOption
}

// Option defines a functional option for configuring a logbook.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		devSafety:    true,
		shadowBranch: git.ShadowBranch,
		syncRemote:   git.SyncRemote,
	}
}

// WithAutoInit creates the data directory and its git repository when missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithLogger sets the logger for the store, the git client and the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAuthor sets the identity that authors new records and signs commits.
func WithAuthor(id git.Identity) Option {
	return func(o *options) {
		o.identity = id
	}
}

// WithSchema replaces the default access log schema.
func WithSchema(s core.Schema) Option {
	return func(o *options) {
		o.schema = s
	}
}

// WithShadowBranch names the branch used for synchronization.
func WithShadowBranch(name string) Option {
	return func(o *options) {
		if name != "" {
			o.shadowBranch = name
		}
	}
}

// WithSyncRemote names the git remote configured for each sync session.
func WithSyncRemote(name string) Option {
	return func(o *options) {
		if name != "" {
			o.syncRemote = name
		}
	}
}

// WithStore injects a custom store (e.g. a mock). Init is then skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithSyncer injects a custom sync backend in place of the shadow branch.
func WithSyncer(s core.Syncer) Option {
	return func(o *options) {
		o.syncer = s
	}
}

// WithCollector sets the collaborator asking for field values.
func WithCollector(c core.Collector) Option {
	return func(o *options) {
		o.service = append(o.service, core.WithCollector(c))
	}
}

// WithEditor sets the collaborator editing free-form text.
func WithEditor(e core.Editor) Option {
	return func(o *options) {
		o.service = append(o.service, core.WithEditor(e))
	}
}

// WithPicker sets the collaborator choosing among ambiguous ids.
func WithPicker(p core.Picker) Option {
	return func(o *options) {
		o.service = append(o.service, core.WithPicker(p))
	}
}

// WithConfirmer sets the collaborator confirming deletions.
func WithConfirmer(c core.Confirmer) Option {
	return func(o *options) {
		o.service = append(o.service, core.WithConfirmer(c))
	}
}

// WithWatcherErrorHandler registers a callback to handle errors occurring during the Watch loop.
// Watch errors are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true) data paths are re-rooted into a temporary directory so a dev build never
// commits into a real logbook.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
