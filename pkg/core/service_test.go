package core_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/logbook/pkg/core"
)

const author = "Ada <ada@example.com>"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(store core.Store, opts ...core.ServiceOption) *core.Service {
	opts = append([]core.ServiceOption{core.WithAuthor(author), core.WithClock(func() time.Time { return fixedNow })}, opts...)
	return core.NewService(store, opts...)
}

func TestService_Add(t *testing.T) {
	store := NewMockStore()
	svc := newService(store)
	ctx := context.Background()

	rec, err := svc.Add(ctx, map[string]string{"desc": "ssh into bastion", "host": "bastion"})
	require.NoError(t, err)
	assert.Len(t, rec.ID, core.FullIDLength)
	assert.Equal(t, author, rec.Author)
	assert.Equal(t, "bastion", rec.String("host"))
	assert.True(t, rec.Time("time").Equal(fixedNow), "time defaults to now")

	loaded, err := svc.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
}

func TestService_Add_IgnoresAuthorOverride(t *testing.T) {
	svc := newService(NewMockStore())
	rec, err := svc.Add(context.Background(), map[string]string{"desc": "x", "author": "Mallory <m@example.com>"})
	require.NoError(t, err)
	assert.Equal(t, author, rec.Author)
}

func TestService_Add_RequiredFields(t *testing.T) {
	store := NewMockStore()
	svc := newService(store)

	_, err := svc.Add(context.Background(), map[string]string{"host": "db1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"desc"}, verr.Missing)
	assert.Zero(t, store.saves, "nothing is saved when validation fails")
}

func TestService_Add_MissingAuthor(t *testing.T) {
	store := NewMockStore()
	svc := core.NewService(store)

	_, err := svc.Add(context.Background(), map[string]string{"desc": "x"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Missing, "author")
	assert.Zero(t, store.saves)
}

func TestService_Add_UnknownField(t *testing.T) {
	svc := newService(NewMockStore())
	_, err := svc.Add(context.Background(), map[string]string{"desc": "x", "colour": "red"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestService_Add_InvalidTime(t *testing.T) {
	store := NewMockStore()
	svc := newService(store)
	_, err := svc.Add(context.Background(), map[string]string{"desc": "x", "time": "not a time at all"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Zero(t, store.saves)
}

func TestService_Resolve(t *testing.T) {
	store := NewMockStore()
	store.Seed("297aacc3863171ed86ba89a2ea0e88f9c4d99d48", "one")
	store.Seed("ab12000000000000000000000000000000000000", "two")
	store.Seed("ab34000000000000000000000000000000000000", "three")
	ctx := context.Background()

	t.Run("unique prefix", func(t *testing.T) {
		svc := newService(store)
		id, err := svc.Resolve(ctx, "297aacc")
		require.NoError(t, err)
		assert.Equal(t, "297aacc3863171ed86ba89a2ea0e88f9c4d99d48", id)
	})

	t.Run("no match", func(t *testing.T) {
		svc := newService(store)
		_, err := svc.Resolve(ctx, "ffffff")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("ambiguous without picker", func(t *testing.T) {
		svc := newService(store)
		_, err := svc.Resolve(ctx, "ab")
		assert.ErrorIs(t, err, core.ErrAmbiguousID)

		var aerr *core.AmbiguousIDError
		require.ErrorAs(t, err, &aerr)
		assert.Len(t, aerr.Matches, 2)
	})

	t.Run("ambiguous with picker", func(t *testing.T) {
		picker := &mockPicker{choice: "ab34000000000000000000000000000000000000"}
		svc := newService(store, core.WithPicker(picker))
		id, err := svc.Resolve(ctx, "ab")
		require.NoError(t, err)
		assert.Equal(t, picker.choice, id)
		assert.Len(t, picker.offers, 2)
	})

	t.Run("picker returns a stranger", func(t *testing.T) {
		svc := newService(store, core.WithPicker(&mockPicker{choice: "297aacc3863171ed86ba89a2ea0e88f9c4d99d48"}))
		_, err := svc.Resolve(ctx, "ab")
		assert.ErrorIs(t, err, core.ErrAborted)
	})

	t.Run("find loads the match", func(t *testing.T) {
		svc := newService(store)
		rec, err := svc.Find(ctx, "297AACC")
		require.NoError(t, err)
		assert.Equal(t, "one", rec.String("desc"))

		_, err = svc.Find(ctx, "ab")
		assert.ErrorIs(t, err, core.ErrAmbiguousID)
	})

	t.Run("empty prefix matches nothing", func(t *testing.T) {
		svc := newService(store)
		ids, err := svc.MatchIDs(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestService_MatchIDs_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	hexID := gen.RegexMatch("[012abf]{40}")

	properties.Property("matches are exactly the ids with the prefix", prop.ForAll(
		func(ids []string, n int) bool {
			store := NewMockStore()
			for _, id := range ids {
				store.Seed(id, "x")
			}
			prefix := ""
			if len(ids) > 0 {
				prefix = ids[0][:n]
			}
			got, err := newService(store).MatchIDs(context.Background(), prefix)
			if err != nil {
				return false
			}
			for _, id := range got {
				if !strings.HasPrefix(id, prefix) {
					return false
				}
			}
			for id := range store.records {
				if prefix != "" && strings.HasPrefix(id, prefix) && !slices.Contains(got, id) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(hexID),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

func TestService_EditFields(t *testing.T) {
	store := NewMockStore()
	svc := newService(store)
	ctx := context.Background()

	rec, err := svc.Add(ctx, map[string]string{"desc": "first", "host": "a"})
	require.NoError(t, err)
	// A key the schema no longer declares.
	stored := store.records[rec.ID]
	stored.Fields["legacy"] = "kept"
	store.records[rec.ID] = stored

	edited, err := svc.EditFields(ctx, rec.ID[:7], map[string]string{"host": "b"})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, edited.ID, "identity is stable across edits")
	assert.Equal(t, "b", edited.String("host"))
	assert.Equal(t, "kept", edited.String("legacy"))
	assert.Equal(t, author, edited.Author)

	_, err = svc.EditFields(ctx, rec.ID, map[string]string{"desc": ""})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestService_Compose(t *testing.T) {
	ctx := context.Background()

	t.Run("editor splits head and body", func(t *testing.T) {
		editor := &mockEditor{text: "reboot web1\n\nkernel update\nwent fine\n"}
		collector := &mockCollector{values: map[string]string{"host": "web1"}}
		svc := newService(NewMockStore(), core.WithEditor(editor), core.WithCollector(collector))

		rec, err := svc.AddInteractive(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "reboot web1", rec.String("desc"))
		assert.Equal(t, "kernel update\nwent fine", rec.String("comment"))
		assert.Equal(t, "web1", rec.String("host"))

		for _, r := range collector.asked {
			assert.NotEqual(t, core.TypeText, r.Type, "text fields go through the editor")
		}
	})

	t.Run("empty head aborts", func(t *testing.T) {
		store := NewMockStore()
		svc := newService(store, core.WithEditor(&mockEditor{text: "\n\n"}), core.WithCollector(&mockCollector{}))
		_, err := svc.AddInteractive(ctx, nil)
		assert.ErrorIs(t, err, core.ErrEmptyInput)
		assert.Zero(t, store.saves)
	})

	t.Run("collector abort", func(t *testing.T) {
		store := NewMockStore()
		svc := newService(store,
			core.WithEditor(&mockEditor{text: "x"}),
			core.WithCollector(&mockCollector{err: core.ErrAborted}))
		_, err := svc.AddInteractive(ctx, nil)
		assert.ErrorIs(t, err, core.ErrAborted)
		assert.Zero(t, store.saves)
	})

	t.Run("edit prefills the editor", func(t *testing.T) {
		store := NewMockStore()
		editor := &mockEditor{}
		svc := newService(store, core.WithEditor(editor), core.WithCollector(&mockCollector{}))
		rec, err := svc.Add(ctx, map[string]string{"desc": "head", "comment": "body"})
		require.NoError(t, err)

		editor.text = "new head\n\nbody"
		edited, err := svc.Edit(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "head\n\nbody", editor.given)
		assert.Equal(t, "new head", edited.String("desc"))
		assert.Equal(t, rec.ID, edited.ID)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	seed := func() *MockStore {
		store := NewMockStore()
		store.Seed("ab12000000000000000000000000000000000000", "two")
		store.Seed("ab34000000000000000000000000000000000000", "three")
		store.Seed("cd00000000000000000000000000000000000000", "four")
		return store
	}

	t.Run("without confirmer nothing is deleted", func(t *testing.T) {
		store := seed()
		deleted, err := newService(store).Delete(ctx, []string{"ab"}, false)
		require.NoError(t, err)
		assert.Empty(t, deleted)
		assert.Len(t, store.records, 3)
	})

	t.Run("force deletes every match once", func(t *testing.T) {
		store := seed()
		deleted, err := newService(store).Delete(ctx, []string{"ab", "ab1", "zz"}, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"ab12000000000000000000000000000000000000", "ab34000000000000000000000000000000000000"}, deleted)
		assert.Len(t, store.records, 1)
		assert.Equal(t, 2, store.deletes)
	})

	t.Run("confirmer gates each record", func(t *testing.T) {
		store := seed()
		c := &mockConfirmer{answers: map[string]bool{"ab34000000000000000000000000000000000000": true}}
		deleted, err := newService(store, core.WithConfirmer(c)).Delete(ctx, []string{"ab"}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"ab34000000000000000000000000000000000000"}, deleted)
	})

	t.Run("confirmer error skips", func(t *testing.T) {
		store := seed()
		c := &mockConfirmer{err: errors.New("tty closed")}
		deleted, err := newService(store, core.WithConfirmer(c)).Delete(ctx, []string{"cd"}, false)
		require.NoError(t, err)
		assert.Empty(t, deleted)
	})
}

func TestService_RecentLogs(t *testing.T) {
	store := NewMockStore()
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.LastLog(ctx)
	assert.ErrorIs(t, err, core.ErrNotFound)

	for _, d := range []string{"one", "two", "three"} {
		_, err := svc.Add(ctx, map[string]string{"desc": d})
		require.NoError(t, err)
	}

	last, err := svc.LastLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, "three", last.String("desc"))

	recent, err := svc.RecentLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[1].String("desc"))

	none, err := svc.RecentLogs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_History(t *testing.T) {
	store := NewMockStore()
	svc := newService(store)
	ctx := context.Background()

	rec, err := svc.Add(ctx, map[string]string{"desc": "v1"})
	require.NoError(t, err)
	_, err = svc.EditFields(ctx, rec.ID, map[string]string{"desc": "v2"})
	require.NoError(t, err)

	versions, err := svc.History(ctx, rec.ShortID())
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "v2", versions[0].Record.String("desc"))

	_, err = svc.Delete(ctx, []string{rec.ID}, true)
	require.NoError(t, err)

	versions, err = svc.History(ctx, rec.ID)
	require.NoError(t, err, "full ids of deleted records keep their history")
	assert.True(t, versions[0].Deleted)

	_, err = svc.History(ctx, rec.ShortID())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_CollectLogs(t *testing.T) {
	store := NewMockStore()
	svc := newService(store)
	ctx := context.Background()

	for _, h := range []string{"web1.example.com", "db1.example.com", "web2.internal"} {
		_, err := svc.Add(ctx, map[string]string{"desc": "visit " + h, "host": h})
		require.NoError(t, err)
	}

	var hosts []string
	for rec, err := range svc.CollectLogs(ctx, nil, core.MatchField(svc.Schema(), "host", "web*.example.com")) {
		require.NoError(t, err)
		hosts = append(hosts, rec.String("host"))
	}
	assert.Equal(t, []string{"web1.example.com"}, hosts)

	count := 0
	for range svc.CollectLogs(ctx, nil, core.All(core.Since("time", fixedNow), nil)) {
		count++
		break
	}
	assert.Equal(t, 1, count, "stopping early is allowed")

	for _, err := range svc.CollectLogs(ctx, []string{"0000000000000000000000000000000000000000"}, nil) {
		assert.ErrorIs(t, err, core.ErrNotFound)
	}
}
