package core

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// FieldType selects the default conversion and how a field is collected and rendered.
type FieldType string

const (
	// TypeString is a single-line value.
	TypeString FieldType = "string"
	// TypeText is free-form text, collected through the editor.
	TypeText FieldType = "text"
	// TypeTime is a timestamp, stored as RFC 3339.
	TypeTime FieldType = "time"
	// TypeSecret is a single-line value that is masked when rendered.
	TypeSecret FieldType = "secret"
)

// Reserved names cannot be used by schema fields.
const (
	FieldAuthor = "author"
	FieldID     = "id"
)

// DefaultNow is the Default of a time field that resolves to the current time.
const DefaultNow = "now"

// Converter translates a field between its stored text and its in-memory value.
type Converter struct {
	ToMemory func(stored string) (any, error)
	ToStored func(v any) (string, error)
}

// Field describes one entry of the record schema.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Default     string
	Description string
	// Convert overrides the conversion implied by Type.
	Convert *Converter
}

func (f Field) converter() Converter {
	if f.Convert != nil {
		return *f.Convert
	}
	if c, ok := converters[f.Type]; ok {
		return c
	}
	return converters[TypeString]
}

// ToMemory converts a stored value into its in-memory representation.
func (f Field) ToMemory(stored string) (any, error) {
	v, err := f.converter().ToMemory(stored)
	if err != nil {
		return nil, &ValidationError{Field: f.Name, Err: err}
	}
	return v, nil
}

// ToStored converts an in-memory value into its stored representation.
func (f Field) ToStored(v any) (string, error) {
	s, err := f.converter().ToStored(v)
	if err != nil {
		return "", &ValidationError{Field: f.Name, Err: err}
	}
	return s, nil
}

// DefaultValue resolves the configured default at the given instant.
func (f Field) DefaultValue(now time.Time) string {
	if f.Type == TypeTime && f.Default == DefaultNow {
		return now.Format(time.RFC3339)
	}
	return f.Default
}

// IsEmpty reports whether v counts as missing for a required field.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case time.Time:
		return x.IsZero()
	default:
		return false
	}
}

var converters = map[FieldType]Converter{
	TypeString: {ToMemory: identity, ToStored: stringValue},
	TypeText:   {ToMemory: identity, ToStored: stringValue},
	TypeSecret: {ToMemory: identity, ToStored: stringValue},
	TypeTime:   {ToMemory: parseTime, ToStored: formatTime},
}

func identity(s string) (any, error) { return s, nil }

func stringValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", fmt.Errorf("expected text, got %T", v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime accepts RFC 3339 first so stored values always decode the same way.
// Human input falls back to a few layouts and then natural language ("yesterday 3pm").
func parseTime(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if s == DefaultNow {
		return time.Now().Truncate(time.Second), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(s, time.Now())
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if r == nil {
		return nil, fmt.Errorf("invalid time %q", s)
	}
	return r.Time.Truncate(time.Second), nil
}

func formatTime(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case time.Time:
		if x.IsZero() {
			return "", nil
		}
		return x.Format(time.RFC3339), nil
	case string:
		// Accept already-stored text so callers can pass raw values through.
		t, err := parseTime(x)
		if err != nil {
			return "", err
		}
		return formatTime(t)
	default:
		return "", fmt.Errorf("expected time, got %T", v)
	}
}

// Schema is the ordered table of field descriptors shared by every record.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema, rejecting duplicate, reserved, or untyped fields.
func NewSchema(fields ...Field) (Schema, error) {
	s := Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return Schema{}, fmt.Errorf("schema field without a name")
		}
		if name == FieldAuthor || name == FieldID {
			return Schema{}, fmt.Errorf("schema field %q is reserved", name)
		}
		if _, dup := s.index[name]; dup {
			return Schema{}, fmt.Errorf("schema field %q declared twice", name)
		}
		if f.Type == "" {
			f.Type = TypeString
		}
		if _, ok := converters[f.Type]; !ok && f.Convert == nil {
			return Schema{}, fmt.Errorf("schema field %q has unknown type %q", name, f.Type)
		}
		f.Name = name
		s.index[name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is NewSchema for static declarations.
func MustSchema(fields ...Field) Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultSchema is the access log schema.
func DefaultSchema() Schema {
	return MustSchema(
		Field{Name: "desc", Type: TypeText, Required: true, Description: "what happened"},
		Field{Name: "time", Type: TypeTime, Required: true, Default: DefaultNow, Description: "when it happened"},
		Field{Name: "host", Type: TypeString, Description: "host"},
		Field{Name: "protocol", Type: TypeString, Description: "protocol"},
		Field{Name: "port", Type: TypeString, Description: "port"},
		Field{Name: "user", Type: TypeString, Description: "user"},
		Field{Name: "password", Type: TypeSecret, Description: "password"},
		Field{Name: "comment", Type: TypeText, Description: "comment"},
	)
}

// Fields returns the descriptors in declaration order.
func (s Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Lookup finds a field by name.
func (s Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// OfType returns the fields of the given type in declaration order.
func (s Schema) OfType(t FieldType) []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// Missing lists the required fields that are empty in raw.
func (s Schema) Missing(raw map[string]string) []string {
	var missing []string
	for _, f := range s.fields {
		if f.Required && strings.TrimSpace(raw[f.Name]) == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// ApplyDefaults fills empty fields that declare a default.
func (s Schema) ApplyDefaults(raw map[string]string, now time.Time) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for _, f := range s.fields {
		if strings.TrimSpace(out[f.Name]) == "" && f.Default != "" {
			out[f.Name] = f.DefaultValue(now)
		}
	}
	return out
}

// Convert turns stored values into in-memory fields.
// Every schema field is present in the result. Keys unknown to the schema are kept as strings.
func (s Schema) Convert(raw map[string]string) (Fields, error) {
	fields := make(Fields, len(raw))
	for _, f := range s.fields {
		v, err := f.ToMemory(raw[f.Name])
		if err != nil {
			return nil, err
		}
		fields[f.Name] = v
	}
	for k, v := range raw {
		if _, known := s.index[k]; known || k == FieldAuthor || k == FieldID {
			continue
		}
		fields[k] = v
	}
	return fields, nil
}

// Stored turns in-memory fields into stored values, the inverse of Convert.
func (s Schema) Stored(fields Fields) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for _, f := range s.fields {
		v, err := f.ToStored(fields[f.Name])
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	for k, v := range fields {
		if _, known := s.index[k]; known {
			continue
		}
		str, err := stringValue(v)
		if err != nil {
			return nil, &ValidationError{Field: k, Err: err}
		}
		out[k] = str
	}
	return out, nil
}

// Extras returns the names of stored keys unknown to the schema, sorted.
func (s Schema) Extras(fields Fields) []string {
	var extras []string
	for k := range fields {
		if _, known := s.index[k]; !known {
			extras = append(extras, k)
		}
	}
	slices.Sort(extras)
	return extras
}

// Validate checks the invariants a record must hold before it is saved.
func (s Schema) Validate(r Record) error {
	var missing []string
	if IsEmpty(r.Author) {
		missing = append(missing, FieldAuthor)
	}
	for _, f := range s.fields {
		if f.Required && IsEmpty(r.Fields[f.Name]) {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
