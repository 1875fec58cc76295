package platform

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/logbook/pkg/core"
	"github.com/aretw0/logbook/pkg/git"
)

func TestNew_WiresFilesystemStore(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs")

	svc, err := New(ctx, path,
		WithAutoInit(true),
		WithAuthor(git.Identity{Name: "Ada", Email: "ada@example.com"}),
	)
	require.NoError(t, err)

	rec, err := svc.Add(ctx, map[string]string{"desc": "rotated keys", "host": "db1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada <ada@example.com>", rec.Author)
	assert.FileExists(t, filepath.Join(path, rec.ID+".yaml"))

	state, ok := svc.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, "fs-store", state.StoreType)
	assert.True(t, state.Syncing)
	assert.Equal(t, core.SyncIdle, state.SyncState)
}

func TestInit_WithoutAutoInit(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	path := filepath.Join(t.TempDir(), "absent")

	_, err := Init(context.Background(), path)
	assert.Error(t, err, "without auto init the data dir must already be a repository")
}

func TestNew_InjectedStore(t *testing.T) {
	store := &stubStore{schema: core.DefaultSchema()}

	svc, err := New(context.Background(), "ignored", WithStore(store))
	require.NoError(t, err)

	state := svc.State().(core.ServiceState)
	assert.Equal(t, "store", state.StoreType)
	assert.False(t, state.Syncing, "only the filesystem store gets a shadow syncer")
}

type stubStore struct {
	core.Store
	schema core.Schema
}

func (s *stubStore) Schema() core.Schema { return s.schema }
