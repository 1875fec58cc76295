// Record is the central entity of the domain.
package core

import (
	"strings"
	"time"
)

// Fields holds the in-memory values of a record, keyed by field name.
// Iteration order is defined by the Schema, never by the map.
type Fields map[string]any

// Clone returns a shallow copy of the fields.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Record is one log entry.
// ID is derived from the content of its first save and never changes afterwards.
type Record struct {
	ID     string
	Author string
	Fields Fields
}

// String returns the named field as text. Non-string values yield "".
func (r Record) String(name string) string {
	s, _ := r.Fields[name].(string)
	return s
}

// Time returns the named field as a time. Non-time values yield the zero time.
func (r Record) Time(name string) time.Time {
	t, _ := r.Fields[name].(time.Time)
	return t
}

// Summary returns the first line of the first text field of the schema.
func (r Record) Summary(s Schema) string {
	for _, f := range s.Fields() {
		if f.Type != TypeText {
			continue
		}
		line, _, _ := strings.Cut(r.String(f.Name), "\n")
		return strings.TrimSpace(line)
	}
	return ""
}

// ShortID returns the first seven characters of the ID, git style.
func (r Record) ShortID() string {
	return ShortID(r.ID)
}

// ShortID abbreviates a full identifier.
func ShortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// Version is one committed state of a record, recovered from history.
type Version struct {
	Commit  string
	When    time.Time
	Message string
	Deleted bool
	Record  Record
}

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the store observed on disk.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}

type contextKey string

// ChangeReasonKey is the context key for overriding the commit message of a Save or Delete.
const ChangeReasonKey contextKey = "change_reason"
