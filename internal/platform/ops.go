package platform

import (
	"context"
	"log/slog"

	"github.com/aretw0/logbook/pkg/adapters/fs"
	"github.com/aretw0/logbook/pkg/core"
)

// Init prepares the data directory at path (directory, git repository, ignore file) and
// returns the store. An injected store is returned as is.
func Init(ctx context.Context, path string, opts ...Option) (core.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initStore(ctx, path, o)
}

func initStore(ctx context.Context, path string, o *options) (core.Store, error) {
	if o.store != nil {
		return o.store, nil
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
	resolved := ResolveDataPath(path, useTemp)
	if IsDevRun() {
		if o.devSafety {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolved)
		} else {
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}
	if useTemp && resolved != path {
		o.logger.Warn("data dir re-rooted", "original_path", path, "resolved_path", resolved)
	}

	store := fs.NewStore(fs.Config{
		Path:         resolved,
		AutoInit:     o.autoInit,
		MustExist:    o.mustExist || (!o.autoInit && !useTemp),
		Schema:       o.schema,
		Identity:     o.identity,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
