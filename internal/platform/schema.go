package platform

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aretw0/logbook/pkg/core"
)

// schemaFile is the TOML layout of a schema file:
//
//	[[field]]
//	name = "desc"
//	type = "text"
//	required = true
type schemaFile struct {
	Fields []schemaField `toml:"field"`
}

type schemaField struct {
	Name        string `toml:"name"`
	Type        string `toml:"type"`
	Required    bool   `toml:"required"`
	Default     string `toml:"default"`
	Description string `toml:"description"`
}

// LoadSchema reads a schema from a TOML file. An empty path yields the default schema.
func LoadSchema(path string) (core.Schema, error) {
	if path == "" {
		return core.DefaultSchema(), nil
	}

	var file schemaFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return core.Schema{}, fmt.Errorf("read schema %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return core.Schema{}, fmt.Errorf("schema %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if len(file.Fields) == 0 {
		return core.Schema{}, fmt.Errorf("schema %s declares no field", path)
	}

	fields := make([]core.Field, len(file.Fields))
	for i, f := range file.Fields {
		fields[i] = core.Field{
			Name:        f.Name,
			Type:        core.FieldType(strings.ToLower(f.Type)),
			Required:    f.Required,
			Default:     f.Default,
			Description: f.Description,
		}
	}
	schema, err := core.NewSchema(fields...)
	if err != nil {
		return core.Schema{}, fmt.Errorf("schema %s: %w", path, err)
	}
	return schema, nil
}
