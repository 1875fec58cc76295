package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Service handles the business logic for log records.
// The store and the version-control adapter are injected; the service holds no other state
// than the last sync state it reports through introspection.
type Service struct {
	store  Store
	syncer Syncer
	author string
	logger *slog.Logger
	now    func() time.Time

	collector Collector
	editor    Editor
	picker    Picker
	confirmer Confirmer

	mu        sync.RWMutex
	syncState SyncState
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSyncer sets the version-control adapter used by Push and Fetch.
func WithSyncer(s Syncer) ServiceOption {
	return func(svc *Service) { svc.syncer = s }
}

// WithAuthor sets the identity injected into every new record ("Name <email>").
func WithAuthor(author string) ServiceOption {
	return func(svc *Service) { svc.author = author }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithCollector sets the interactive collection collaborator.
func WithCollector(c Collector) ServiceOption {
	return func(svc *Service) { svc.collector = c }
}

// WithEditor sets the free-form text collaborator.
func WithEditor(e Editor) ServiceOption {
	return func(svc *Service) { svc.editor = e }
}

// WithPicker sets the disambiguation collaborator.
func WithPicker(p Picker) ServiceOption {
	return func(svc *Service) { svc.picker = p }
}

// WithConfirmer sets the delete confirmation collaborator.
func WithConfirmer(c Confirmer) ServiceOption {
	return func(svc *Service) { svc.confirmer = c }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(svc *Service) { svc.now = now }
}

// NewService creates a new Service on top of a store.
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store:     store,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		syncState: SyncIdle,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Schema returns the schema of the underlying store.
func (s *Service) Schema() Schema {
	return s.store.Schema()
}

// Author returns the identity injected into new records.
func (s *Service) Author() string {
	return s.author
}

// Add validates raw field values and saves them as a new record.
// The author always comes from the service configuration.
func (s *Service) Add(ctx context.Context, raw map[string]string) (Record, error) {
	schema := s.store.Schema()

	input := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == FieldAuthor || k == FieldID {
			continue
		}
		if _, ok := schema.Lookup(k); !ok {
			return Record{}, &ValidationError{Field: k, Err: fmt.Errorf("unknown field")}
		}
		input[k] = v
	}

	input = schema.ApplyDefaults(input, s.now())
	missing := schema.Missing(input)
	if IsEmpty(s.author) {
		missing = append([]string{FieldAuthor}, missing...)
	}
	if len(missing) > 0 {
		return Record{}, &ValidationError{Missing: missing}
	}

	fields, err := s.store.ConvertFields(input)
	if err != nil {
		return Record{}, err
	}

	rec := Record{Author: s.author, Fields: fields}
	if err := s.store.Save(ctx, &rec, nil); err != nil {
		return Record{}, err
	}
	s.logger.Info("record added", "id", rec.ID)
	return rec, nil
}

// AddInteractive collects the fields from the user, starting from defaults, then adds them.
func (s *Service) AddInteractive(ctx context.Context, defaults map[string]string) (Record, error) {
	raw, err := s.Compose(ctx, defaults)
	if err != nil {
		return Record{}, err
	}
	return s.Add(ctx, raw)
}

// Compose collects every schema field interactively.
//
// The first text field is the first paragraph of an editor buffer and the second text field
// is the rest of it. Other fields go through the collector with their defaults.
func (s *Service) Compose(ctx context.Context, defaults map[string]string) (map[string]string, error) {
	schema := s.store.Schema()
	values := schema.ApplyDefaults(defaults, s.now())
	out := make(map[string]string, len(values))

	texts := schema.OfType(TypeText)
	edited := map[string]bool{}
	if len(texts) > 0 {
		if s.editor == nil {
			return nil, fmt.Errorf("no editor configured: %w", ErrAborted)
		}
		head, body, err := s.editText(ctx, values[texts[0].Name], textValue(texts, values))
		if err != nil {
			return nil, err
		}
		if head == "" {
			return nil, fmt.Errorf("%s is empty, aborting: %w", texts[0].Name, ErrEmptyInput)
		}
		out[texts[0].Name] = head
		edited[texts[0].Name] = true
		if len(texts) > 1 {
			out[texts[1].Name] = body
			edited[texts[1].Name] = true
		}
	}

	var reqs []Request
	for _, f := range schema.Fields() {
		if edited[f.Name] {
			continue
		}
		reqs = append(reqs, Request{
			Name:        f.Name,
			Default:     values[f.Name],
			Type:        f.Type,
			Description: f.Description,
		})
	}
	if len(reqs) > 0 {
		if s.collector == nil {
			return nil, fmt.Errorf("no collector configured: %w", ErrAborted)
		}
		got, err := s.collector.Collect(ctx, reqs)
		if err != nil {
			return nil, fmt.Errorf("collect fields: %w", err)
		}
		for _, r := range reqs {
			v, ok := got[r.Name]
			if !ok {
				v = r.Default
			}
			out[r.Name] = v
		}
	}
	return out, nil
}

// textValue returns the second text field, the body of the editor buffer.
func textValue(texts []Field, values map[string]string) string {
	if len(texts) < 2 {
		return ""
	}
	return values[texts[1].Name]
}

func (s *Service) editText(ctx context.Context, head, body string) (string, string, error) {
	var in bytes.Buffer
	if head != "" {
		in.WriteString(head)
		if body != "" {
			in.WriteString("\n\n")
			in.WriteString(body)
		}
	}
	out, err := s.editor.Edit(ctx, in.Bytes())
	if err != nil {
		return "", "", fmt.Errorf("edit text: %w", err)
	}
	text := strings.ReplaceAll(string(out), "\r\n", "\n")
	first, rest, _ := strings.Cut(text, "\n\n")
	return strings.TrimSpace(first), strings.TrimRight(rest, "\n"), nil
}

// Edit resolves id, lets the user change every field, and saves the result under the same id.
func (s *Service) Edit(ctx context.Context, id string) (Record, error) {
	old, err := s.resolveAndLoad(ctx, id)
	if err != nil {
		return Record{}, err
	}
	defaults, err := s.store.Schema().Stored(old.Fields)
	if err != nil {
		return Record{}, err
	}
	raw, err := s.Compose(ctx, defaults)
	if err != nil {
		return Record{}, err
	}
	return s.replace(ctx, old, raw)
}

// EditFields applies changes to a record without interaction and saves it under the same id.
func (s *Service) EditFields(ctx context.Context, id string, changes map[string]string) (Record, error) {
	old, err := s.resolveAndLoad(ctx, id)
	if err != nil {
		return Record{}, err
	}
	schema := s.store.Schema()
	raw, err := schema.Stored(old.Fields)
	if err != nil {
		return Record{}, err
	}
	for k, v := range changes {
		if _, ok := schema.Lookup(k); !ok {
			return Record{}, &ValidationError{Field: k, Err: fmt.Errorf("unknown field")}
		}
		raw[k] = v
	}
	return s.replace(ctx, old, raw)
}

func (s *Service) replace(ctx context.Context, old Record, raw map[string]string) (Record, error) {
	schema := s.store.Schema()
	if missing := schema.Missing(raw); len(missing) > 0 {
		return Record{}, &ValidationError{Missing: missing}
	}
	fields, err := s.store.ConvertFields(raw)
	if err != nil {
		return Record{}, err
	}
	// Keys the schema no longer declares survive the edit untouched.
	for _, k := range schema.Extras(old.Fields) {
		if _, ok := fields[k]; !ok {
			fields[k] = old.Fields[k]
		}
	}
	rec := Record{ID: old.ID, Author: old.Author, Fields: fields}
	if err := s.store.Save(ctx, &rec, &old); err != nil {
		return Record{}, err
	}
	s.logger.Info("record edited", "id", rec.ID)
	return rec, nil
}

func (s *Service) resolveAndLoad(ctx context.Context, id string) (Record, error) {
	full, err := s.Resolve(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return s.store.Load(ctx, full)
}

// Find resolves a partial identifier and loads the record.
func (s *Service) Find(ctx context.Context, id string) (Record, error) {
	return s.resolveAndLoad(ctx, id)
}

// Load retrieves a record by its exact identifier.
func (s *Service) Load(ctx context.Context, id string) (Record, error) {
	return s.store.Load(ctx, id)
}

// Delete expands every partial id, unions the matches, and deletes each record the user
// confirms. With force set every record is deleted without asking.
// It returns the ids that were deleted.
func (s *Service) Delete(ctx context.Context, ids []string, force bool) ([]string, error) {
	var targets []string
	for _, id := range ids {
		matches, err := s.MatchIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			s.logger.Warn("no record matches", "id", id)
		}
		targets = append(targets, matches...)
	}
	slices.Sort(targets)
	targets = slices.Compact(targets)

	pre := func(rec Record) bool {
		if force {
			return true
		}
		if s.confirmer == nil {
			return false
		}
		ok, err := s.confirmer.Confirm(ctx, rec)
		if err != nil {
			s.logger.Warn("confirmation failed, skipping", "id", rec.ID, "error", err)
			return false
		}
		return ok
	}

	var deleted []string
	post := func(rec Record) {
		deleted = append(deleted, rec.ID)
		s.logger.Info("record deleted", "id", rec.ID)
	}

	err := s.store.Delete(ctx, targets, pre, post)
	return deleted, err
}

// LastLog returns the most recently committed record.
func (s *Service) LastLog(ctx context.Context) (Record, error) {
	recs, err := s.store.LastLogs(ctx, 1)
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, &NotFoundError{ID: "last log"}
	}
	return recs[0], nil
}

// RecentLogs returns the count most recently added or changed records, newest first.
func (s *Service) RecentLogs(ctx context.Context, count int) ([]Record, error) {
	if count <= 0 {
		return nil, nil
	}
	return s.store.LastLogs(ctx, count)
}

// History returns every committed version of the record id resolves to.
// A full identifier of a deleted record is accepted since its history outlives it.
func (s *Service) History(ctx context.Context, id string) ([]Version, error) {
	full, err := s.Resolve(ctx, id)
	if errors.Is(err, ErrNotFound) && IsFullID(id) {
		full, err = id, nil
	}
	if err != nil {
		return nil, err
	}
	versions, err := s.store.History(ctx, full)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, &NotFoundError{ID: id}
	}
	return versions, nil
}
