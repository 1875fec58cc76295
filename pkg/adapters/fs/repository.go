package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/logbook/pkg/core"
	"github.com/aretw0/logbook/pkg/git"
)

// Store implements core.Store with one YAML file per record, every change committed to git.
type Store struct {
	Path       string
	git        *git.Client
	history    *git.History
	serializer *YAMLSerializer
	config     Config

	mu            sync.RWMutex
	watcherActive bool
	lastReconcile *time.Time
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Path      string
	AutoInit  bool
	MustExist bool
	Schema    core.Schema
	Identity  git.Identity
	Logger    *slog.Logger
	// ErrorHandler receives errors from background watchers.
	ErrorHandler func(error)
}

// NewStore creates a new filesystem-backed store.
func NewStore(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if len(config.Schema.Names()) == 0 {
		config.Schema = core.DefaultSchema()
	}
	client := git.NewClient(config.Path, config.Identity, config.Logger)
	return &Store{
		Path:       config.Path,
		git:        client,
		history:    git.NewHistory(config.Path),
		serializer: NewYAMLSerializer(config.Schema),
		config:     config,
	}
}

var (
	_ core.Store     = (*Store)(nil)
	_ core.Watchable = (*Store)(nil)
)

// Git returns the client the store commits with, for the sync adapter.
func (s *Store) Git() *git.Client { return s.git }

// Schema implements core.Store.
func (s *Store) Schema() core.Schema { return s.config.Schema }

// ConvertFields implements core.Store.
func (s *Store) ConvertFields(raw map[string]string) (core.Fields, error) {
	return s.config.Schema.Convert(raw)
}

// Initialize performs the necessary setup for the store (mkdir, git init, first commit).
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data directory does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", s.Path)
		}
	} else if err := os.MkdirAll(s.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}
	if !s.git.IsRepo() {
		if !s.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", s.Path)
		}
		if err := s.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
	}

	unlock, err := s.git.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	mod, err := s.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	hasHead := s.git.HasHead(ctx)
	if mod || !hasHead {
		if err := s.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
	}
	staged, err := s.git.HasStagedChanges(ctx)
	if err != nil && hasHead {
		return err
	}
	if staged || !hasHead {
		if err := s.git.Commit(ctx, fmt.Sprintf("init logbook: ignore %s", git.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

func (s *Store) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Path, ".gitignore")
	ignoreEntry := git.SystemDir + "/"

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ignoreEntry {
			return false, nil
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(ignoreEntry + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) filename(id string) string { return id + Ext }

// Save persists a record to the filesystem and commits it to Git.
//
// Workflow:
//  1. Validate required fields and serialize.
//  2. Assign the ID from the content when the record is new.
//  3. Write atomically, unless the file already holds these exact bytes.
//  4. 'git add' and 'git commit', referencing the replaced blob on edits.
func (s *Store) Save(ctx context.Context, rec *core.Record, old *core.Record) error {
	if err := s.config.Schema.Validate(*rec); err != nil {
		return err
	}
	data, err := s.serializer.Serialize(*rec)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	verb := git.CommitEdit
	if rec.ID == "" {
		rec.ID = git.ComputeID(data)
		verb = git.CommitAdd
	} else if !core.IsFullID(rec.ID) {
		return fmt.Errorf("invalid record id %q", rec.ID)
	}
	filename := s.filename(rec.ID)
	fullPath := filepath.Join(s.Path, filename)

	unlock, err := s.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	previous := ""
	current, err := os.ReadFile(fullPath)
	switch {
	case err == nil && (verb == git.CommitAdd || bytes.Equal(current, data)):
		// Same content means same record.
		s.config.Logger.Debug("record unchanged", "id", rec.ID)
		return nil
	case err == nil:
		previous = git.ComputeID(current)
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read %s: %w", filename, err)
	case old != nil:
		return &core.NotFoundError{ID: rec.ID}
	}

	if err := writeFileAtomic(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := s.git.Add(ctx, filename); err != nil {
		s.rollbackWrite(ctx, filename, current, previous != "")
		return fmt.Errorf("failed to git add: %w", err)
	}

	msg := git.FormatCommitMessage(verb, rec.ID, rec.Summary(s.config.Schema), previous)
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	if err := s.git.Commit(ctx, msg); err != nil {
		s.rollbackWrite(ctx, filename, current, previous != "")
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// rollbackWrite drops a write that could not be committed: the index entry goes back to HEAD
// and the file gets its former content, or disappears when it did not exist.
func (s *Store) rollbackWrite(ctx context.Context, filename string, former []byte, existed bool) {
	if err := s.git.Unstage(ctx, filename); err != nil {
		s.config.Logger.Warn("failed to unstage", "file", filename, "error", err)
	}
	fullPath := filepath.Join(s.Path, filename)
	var err error
	if existed {
		err = writeFileAtomic(fullPath, former, 0o644)
	} else {
		err = os.Remove(fullPath)
	}
	if err != nil && !os.IsNotExist(err) {
		s.config.Logger.Warn("failed to restore", "file", filename, "error", err)
	}
}

// Load retrieves a record from the filesystem.
func (s *Store) Load(ctx context.Context, id string) (core.Record, error) {
	if !core.IsFullID(id) {
		return core.Record{}, &core.NotFoundError{ID: id}
	}
	f, err := os.Open(filepath.Join(s.Path, s.filename(id)))
	if err != nil {
		if os.IsNotExist(err) {
			return core.Record{}, &core.NotFoundError{ID: id}
		}
		return core.Record{}, err
	}
	defer f.Close()

	author, raw, err := s.serializer.Parse(f)
	if err != nil {
		return core.Record{}, fmt.Errorf("failed to parse %s: %w", id, err)
	}
	return s.decode(id, author, raw)
}

func (s *Store) decode(id, author string, raw map[string]string) (core.Record, error) {
	fields, err := s.config.Schema.Convert(raw)
	if err != nil {
		return core.Record{}, fmt.Errorf("record %s: %w", id, err)
	}
	return core.Record{ID: id, Author: author, Fields: fields}, nil
}

// AllIDs lists the record files in the data directory, sorted.
// Files whose name is not a record identifier are ignored.
func (s *Store) AllIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.Path, err)
	}
	var ids []string
	for _, e := range entries {
		if id, ok := idFromName(e.Name()); ok && e.Type().IsRegular() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func idFromName(name string) (string, bool) {
	id, ok := strings.CutSuffix(name, Ext)
	if !ok || !core.IsFullID(id) {
		return "", false
	}
	return id, true
}

// Delete removes each record pre accepts, with one commit per record.
// Ids that do not name a record are skipped. A failing id does not stop the others;
// failures are joined into the returned error.
func (s *Store) Delete(ctx context.Context, ids []string, pre func(core.Record) bool, post func(core.Record)) error {
	var errs []error
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if err != nil {
			s.config.Logger.Warn("skipping record", "id", id, "error", err)
			continue
		}
		if pre != nil && !pre(rec) {
			continue
		}
		if err := s.remove(ctx, id); err != nil {
			s.config.Logger.Warn("failed to delete record", "id", id, "error", err)
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
			continue
		}
		if post != nil {
			post(rec)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) remove(ctx context.Context, id string) error {
	unlock, err := s.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	filename := s.filename(id)
	if err := s.git.Rm(ctx, filename); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}
	msg := git.FormatCommitMessage(git.CommitDelete, id, "", "")
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	if err := s.git.Commit(ctx, msg); err != nil {
		if rerr := s.git.Restore(ctx, filename); rerr != nil {
			s.config.Logger.Warn("failed to restore", "file", filename, "error", rerr)
		}
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// LastLogs returns the n most recently committed records that still exist, newest first.
func (s *Store) LastLogs(ctx context.Context, n int) ([]core.Record, error) {
	paths, err := s.history.RecentPaths(ctx, n, func(path string) bool {
		id, ok := idFromName(path)
		if !ok {
			return false
		}
		_, err := os.Stat(filepath.Join(s.Path, s.filename(id)))
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	recs := make([]core.Record, 0, len(paths))
	for _, p := range paths {
		id, _ := idFromName(p)
		rec, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// History returns every committed version of a record, newest first.
// The version of a deletion carries the last content the record had.
func (s *Store) History(ctx context.Context, id string) ([]core.Version, error) {
	if !core.IsFullID(id) {
		return nil, &core.NotFoundError{ID: id}
	}
	changes, err := s.history.FileHistory(ctx, s.filename(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	versions := make([]core.Version, len(changes))
	for i := len(changes) - 1; i >= 0; i-- {
		ch := changes[i]
		v := core.Version{
			Commit:  ch.Commit,
			When:    ch.When,
			Message: ch.Message,
			Deleted: ch.Deleted,
			Record:  core.Record{ID: id},
		}
		switch {
		case ch.Deleted && i+1 < len(changes):
			v.Record = versions[i+1].Record
		case !ch.Deleted:
			author, raw, err := s.serializer.Parse(bytes.NewReader(ch.Content))
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s at %s: %w", id, ch.Commit, err)
			}
			if v.Record, err = s.decode(id, author, raw); err != nil {
				return nil, err
			}
		}
		versions[i] = v
	}
	return versions, nil
}
