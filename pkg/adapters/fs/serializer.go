package fs

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/logbook/pkg/core"
)

// Ext is the extension of record files.
const Ext = ".yaml"

// YAMLSerializer reads and writes records as flat YAML mappings.
//
// Output is deterministic so identical records always produce identical bytes:
// author first, then every schema field in declaration order (empty ones included),
// then unknown keys sorted by name.
type YAMLSerializer struct {
	Schema core.Schema
}

// NewYAMLSerializer creates a serializer for the given schema.
func NewYAMLSerializer(schema core.Schema) *YAMLSerializer {
	return &YAMLSerializer{Schema: schema}
}

// Serialize converts the record to bytes. The ID is not part of the content.
func (s *YAMLSerializer) Serialize(rec core.Record) ([]byte, error) {
	stored, err := s.Schema.Stored(rec.Fields)
	if err != nil {
		return nil, err
	}

	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	root.Content = append(root.Content, keyValue(core.FieldAuthor, rec.Author)...)
	for _, name := range s.Schema.Names() {
		root.Content = append(root.Content, keyValue(name, stored[name])...)
	}
	for _, name := range s.Schema.Extras(rec.Fields) {
		if name == core.FieldAuthor || name == core.FieldID {
			continue
		}
		root.Content = append(root.Content, keyValue(name, stored[name])...)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	var check yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &check); err != nil {
		return nil, fmt.Errorf("encode yaml: output does not parse: %w", err)
	}
	return buf.Bytes(), nil
}

func keyValue(key, value string) []*yaml.Node {
	v := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	if strings.Contains(value, "\n") {
		v.Style = yaml.LiteralStyle
	}
	if !readsBack(key, value, v.Style) {
		v.Style = yaml.DoubleQuotedStyle
	}
	return []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		v,
	}
}

// readsBack reports whether value written in style parses back unchanged.
// Some text (a line led by a tab, for one) makes the emitter write a scalar the parser rejects.
func readsBack(key, value string, style yaml.Style) bool {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: style},
	}}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return false
	}
	if err := enc.Close(); err != nil {
		return false
	}
	var back map[string]string
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		return false
	}
	return back[key] == value
}

// Parse reads the author and the stored values of a record.
// Every value must be a scalar; its text is kept exactly as written.
func (s *YAMLSerializer) Parse(r io.Reader) (string, map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("invalid yaml: %w", err)
	}
	raw := map[string]string{}
	if doc.Kind == 0 {
		return "", raw, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return "", nil, fmt.Errorf("invalid yaml: expected a mapping")
	}

	m := doc.Content[0]
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return "", nil, fmt.Errorf("invalid yaml: field %s is not a scalar", k.Value)
		}
		if v.Tag == "!!null" {
			raw[k.Value] = ""
			continue
		}
		raw[k.Value] = v.Value
	}

	author := raw[core.FieldAuthor]
	delete(raw, core.FieldAuthor)
	delete(raw, core.FieldID)
	return author, raw, nil
}
