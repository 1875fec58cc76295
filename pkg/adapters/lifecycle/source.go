package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/logbook/pkg/core"
)

type recordSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits record change events.
// The source closes its channel when events closes or its context ends.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &recordSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *recordSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *recordSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
