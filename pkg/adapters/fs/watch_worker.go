package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/logbook/pkg/core"
	"github.com/aretw0/logbook/pkg/git"
)

const debounceWindow = 50 * time.Millisecond

// Watch reports record changes made on disk, by this process, another one, or a sync.
// The channel is closed once ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan core.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Path, err)
	}
	_ = watcher.Add(filepath.Join(s.Path, ".git"))

	w := &watchWorker{
		store:     s,
		watcher:   watcher,
		events:    make(chan core.Event, 64),
		debouncer: newDebouncer(debounceWindow),
		known:     s.snapshot(),
	}
	s.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		s.handleError(fmt.Errorf("watcher panic: %w", err))
	}))
	return w.events, nil
}

type watchWorker struct {
	store     *Store
	watcher   *fsnotify.Watcher
	events    chan core.Event
	debouncer *debouncer
	// known maps live ids to their modification time, for reconciliation.
	known map[string]time.Time
}

func (s *Store) handleError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.config.Logger.Error("watcher error", "error", err)
}

// snapshot stats every record file.
func (s *Store) snapshot() map[string]time.Time {
	out := map[string]time.Time{}
	ids, err := s.AllIDs(context.Background())
	if err != nil {
		return out
	}
	for _, id := range ids {
		if info, err := os.Stat(filepath.Join(s.Path, s.filename(id))); err == nil {
			out[id] = info.ModTime()
		}
	}
	return out
}

// reconcile diffs the directory against the last snapshot. It recovers changes made while
// git held its index lock, such as a fast-forward after a fetch.
func (w *watchWorker) reconcile() []core.Event {
	now := time.Now().Unix()
	current := w.store.snapshot()
	var events []core.Event
	for id, mod := range current {
		prev, ok := w.known[id]
		switch {
		case !ok:
			events = append(events, core.Event{Type: core.EventCreate, ID: id, Timestamp: now})
		case !prev.Equal(mod):
			events = append(events, core.Event{Type: core.EventModify, ID: id, Timestamp: now})
		}
	}
	for id := range w.known {
		if _, ok := current[id]; !ok {
			events = append(events, core.Event{Type: core.EventDelete, ID: id, Timestamp: now})
		}
	}
	w.known = current
	w.store.recordReconcile()
	return events
}

// isGitLock reports whether event is about .git/index.lock.
func isGitLock(event fsnotify.Event) bool {
	return filepath.Base(event.Name) == "index.lock" && filepath.Base(filepath.Dir(event.Name)) == ".git"
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	default:
		return ""
	}
}

func (w *watchWorker) run(ctx context.Context) error {
	defer func() {
		w.debouncer.stopAndWait(5 * time.Second)
		close(w.events)
	}()
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	logger := w.store.config.Logger
	gitLocked := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if isGitLock(event) {
				if event.Has(fsnotify.Create) {
					logger.Debug("git operation detected, pausing watcher")
					gitLocked = true
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					logger.Debug("git operation finished, reconciling")
					gitLocked = false
					for _, e := range w.reconcile() {
						w.send(ctx, e)
					}
				}
				continue
			}
			if gitLocked || isTempFile(event.Name) || filepath.Dir(event.Name) != filepath.Clean(w.store.Path) {
				continue
			}
			id, ok := idFromName(filepath.Base(event.Name))
			if !ok {
				continue
			}
			t := mapEventType(event)
			if t == "" {
				continue
			}
			// An atomic write shows up as a rename onto the target.
			if t == core.EventDelete {
				if _, err := os.Stat(event.Name); err == nil {
					t = core.EventModify
				}
			}
			w.track(id, t)
			w.send(ctx, core.Event{Type: t, ID: id, Timestamp: time.Now().Unix()})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.store.handleError(err)
		}
	}
}

func (w *watchWorker) track(id string, t core.EventType) {
	if t == core.EventDelete {
		delete(w.known, id)
		return
	}
	if info, err := os.Stat(filepath.Join(w.store.Path, w.store.filename(id))); err == nil {
		w.known[id] = info.ModTime()
	}
}

func (w *watchWorker) send(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// SystemPath returns the directory holding the lock and the shadow worktree.
func (s *Store) SystemPath() string {
	return filepath.Join(s.Path, git.SystemDir)
}
