package core

import (
	"context"
	"iter"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects records during collection.
type Filter func(Record) bool

// CollectLogs walks the records named by ids (every live record when ids is nil) and yields
// those accepted by filter.
//
// The sequence is lazy and is recomputed each time it is ranged over, so stopping early
// has no side effects. A record that fails to load is yielded with its error and the
// walk goes on if the consumer keeps ranging.
func (s *Service) CollectLogs(ctx context.Context, ids []string, filter Filter) iter.Seq2[Record, error] {
	if filter == nil {
		filter = func(Record) bool { return true }
	}
	return func(yield func(Record, error) bool) {
		walk := ids
		if walk == nil {
			all, err := s.store.AllIDs(ctx)
			if err != nil {
				yield(Record{}, err)
				return
			}
			walk = all
		}
		for _, id := range walk {
			if ctx.Err() != nil {
				yield(Record{}, ctx.Err())
				return
			}
			rec, err := s.store.Load(ctx, id)
			if err != nil {
				if !yield(Record{ID: id}, err) {
					return
				}
				continue
			}
			if !filter(rec) {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// MatchField accepts records whose stored value of field matches a doublestar glob,
// e.g. MatchField(schema, "host", "*.example.com").
func MatchField(schema Schema, field, pattern string) Filter {
	return func(r Record) bool {
		stored, err := schema.Stored(Fields{field: r.Fields[field]})
		if err != nil {
			return false
		}
		ok, err := doublestar.Match(pattern, stored[field])
		return err == nil && ok
	}
}

// Since accepts records whose time field is at or after t.
func Since(field string, t time.Time) Filter {
	return func(r Record) bool {
		v := r.Time(field)
		return !v.IsZero() && !v.Before(t)
	}
}

// All accepts records accepted by every filter.
func All(filters ...Filter) Filter {
	return func(r Record) bool {
		for _, f := range filters {
			if f != nil && !f(r) {
				return false
			}
		}
		return true
	}
}
