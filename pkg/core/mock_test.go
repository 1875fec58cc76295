package core_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"slices"
	"sort"

	"github.com/aretw0/logbook/pkg/core"
)

// MockStore implements core.Store in memory.
// IDs are the sha1 of the stored values so tests can also seed records with chosen ids.
type MockStore struct {
	schema  core.Schema
	records map[string]core.Record
	order   []string
	saves   int
	deletes int
	history map[string][]core.Version
}

func NewMockStore() *MockStore {
	return &MockStore{
		schema:  core.DefaultSchema(),
		records: make(map[string]core.Record),
		history: make(map[string][]core.Version),
	}
}

// Seed inserts a record under a chosen id.
func (m *MockStore) Seed(id, desc string) {
	m.records[id] = core.Record{ID: id, Author: "seed <seed@example.com>", Fields: core.Fields{"desc": desc}}
	m.order = append(m.order, id)
}

func (m *MockStore) Schema() core.Schema { return m.schema }

func (m *MockStore) ConvertFields(raw map[string]string) (core.Fields, error) {
	return m.schema.Convert(raw)
}

func (m *MockStore) Save(ctx context.Context, rec *core.Record, old *core.Record) error {
	if err := m.schema.Validate(*rec); err != nil {
		return err
	}
	if rec.ID == "" {
		stored, err := m.schema.Stored(rec.Fields)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(stored))
		for k := range stored {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		h := sha1.New()
		fmt.Fprintf(h, "author=%s\n", rec.Author)
		for _, k := range keys {
			fmt.Fprintf(h, "%s=%s\n", k, stored[k])
		}
		rec.ID = hex.EncodeToString(h.Sum(nil))
	}
	if _, ok := m.records[rec.ID]; !ok {
		m.order = append(m.order, rec.ID)
	}
	m.records[rec.ID] = *rec
	m.history[rec.ID] = append([]core.Version{{Commit: fmt.Sprintf("c%d", m.saves), Record: *rec}}, m.history[rec.ID]...)
	m.saves++
	return nil
}

func (m *MockStore) Load(ctx context.Context, id string) (core.Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return core.Record{}, &core.NotFoundError{ID: id}
	}
	return rec, nil
}

func (m *MockStore) AllIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockStore) Delete(ctx context.Context, ids []string, pre func(core.Record) bool, post func(core.Record)) error {
	for _, id := range ids {
		rec, ok := m.records[id]
		if !ok {
			continue
		}
		if !pre(rec) {
			continue
		}
		delete(m.records, id)
		m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
		m.history[id] = append([]core.Version{{Commit: fmt.Sprintf("d%d", m.deletes), Deleted: true, Record: rec}}, m.history[id]...)
		m.deletes++
		post(rec)
	}
	return nil
}

func (m *MockStore) LastLogs(ctx context.Context, n int) ([]core.Record, error) {
	var out []core.Record
	for i := len(m.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.records[m.order[i]])
	}
	return out, nil
}

func (m *MockStore) History(ctx context.Context, id string) ([]core.Version, error) {
	return m.history[id], nil
}

func (m *MockStore) Initialize(ctx context.Context) error { return nil }

// MockSyncer replays scripted push and merge outcomes.
type MockSyncer struct {
	pushes   []core.SyncStatus
	merges   []core.SyncStatus
	fetchErr error

	initCalls  int
	pushCalls  int
	fetchCalls int
	mergeCalls int
	remotes    []string
}

func (m *MockSyncer) ShadowInit(ctx context.Context) error {
	m.initCalls++
	return nil
}

func (m *MockSyncer) SetRemote(ctx context.Context, remote string) error {
	m.remotes = append(m.remotes, remote)
	return nil
}

func (m *MockSyncer) ShadowPush(ctx context.Context, remote string) (core.SyncStatus, string) {
	st := next(m.pushes, m.pushCalls)
	m.pushCalls++
	return st, "push " + st.String()
}

func (m *MockSyncer) ShadowFetch(ctx context.Context, remote string) error {
	m.fetchCalls++
	return m.fetchErr
}

func (m *MockSyncer) ShadowMerge(ctx context.Context, remote string) (core.SyncStatus, string) {
	st := next(m.merges, m.mergeCalls)
	m.mergeCalls++
	return st, "merge " + st.String()
}

func next(script []core.SyncStatus, i int) core.SyncStatus {
	if len(script) == 0 {
		return core.SyncSuccess
	}
	if i >= len(script) {
		return script[len(script)-1]
	}
	return script[i]
}

type mockCollector struct {
	values map[string]string
	err    error
	asked  []core.Request
}

func (c *mockCollector) Collect(ctx context.Context, reqs []core.Request) (map[string]string, error) {
	c.asked = reqs
	if c.err != nil {
		return nil, c.err
	}
	return c.values, nil
}

type mockEditor struct {
	text  string
	given string
}

func (e *mockEditor) Edit(ctx context.Context, initial []byte) ([]byte, error) {
	e.given = string(initial)
	return []byte(e.text), nil
}

type mockPicker struct {
	choice string
	offers []string
}

func (p *mockPicker) Pick(ctx context.Context, prompt string, ids []string) (string, error) {
	p.offers = ids
	return p.choice, nil
}

type mockConfirmer struct {
	answers map[string]bool
	err     error
}

func (c *mockConfirmer) Confirm(ctx context.Context, rec core.Record) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.answers[rec.ID], nil
}
