package platform

import (
	"context"

	"github.com/aretw0/logbook/pkg/adapters/fs"
	"github.com/aretw0/logbook/pkg/core"
	"github.com/aretw0/logbook/pkg/git"
)

// New initializes the data directory at path and wires a service on it.
// The filesystem store syncs through its shadow branch unless a syncer is injected.
//
//	svc, err := platform.New(ctx, "~/logs", platform.WithAutoInit(true), platform.WithAuthor(id))
func New(ctx context.Context, path string, opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	store, err := initStore(ctx, path, o)
	if err != nil {
		return nil, err
	}

	syncer := o.syncer
	if syncer == nil {
		if fsStore, ok := store.(*fs.Store); ok {
			syncer = git.NewShadow(fsStore.Git(),
				git.WithBranch(o.shadowBranch),
				git.WithRemoteName(o.syncRemote),
			)
		}
	}

	svcOpts := []core.ServiceOption{core.WithServiceLogger(o.logger)}
	if syncer != nil {
		svcOpts = append(svcOpts, core.WithSyncer(syncer))
	}
	if author := o.identity.String(); author != "" {
		svcOpts = append(svcOpts, core.WithAuthor(author))
	}
	svcOpts = append(svcOpts, o.service...)

	return core.NewService(store, svcOpts...), nil
}
