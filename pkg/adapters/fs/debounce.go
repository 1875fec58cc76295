package fs

import (
	"sync"
	"time"

	"github.com/aretw0/logbook/pkg/core"
)

// debouncer coalesces bursts of events on the same record into the last one.
type debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]core.Event
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window:  window,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]core.Event),
	}
}

func (d *debouncer) add(e core.Event, emit func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	// A create followed by writes is still a create.
	if prev, ok := d.pending[e.ID]; ok && prev.Type == core.EventCreate && e.Type == core.EventModify {
		e.Type = core.EventCreate
	}
	d.pending[e.ID] = e

	if t, ok := d.timers[e.ID]; ok && t.Stop() {
		d.wg.Done()
	}
	d.wg.Add(1)
	d.timers[e.ID] = time.AfterFunc(d.window, func() {
		defer d.wg.Done()
		d.mu.Lock()
		ev, ok := d.pending[e.ID]
		delete(d.pending, e.ID)
		delete(d.timers, e.ID)
		d.mu.Unlock()
		if ok {
			emit(ev)
		}
	})
}

// stopAndWait rejects new events and waits up to timeout for in-flight ones.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
