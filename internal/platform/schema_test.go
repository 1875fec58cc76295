package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/logbook/pkg/core"
)

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSchema(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		s, err := LoadSchema("")
		require.NoError(t, err)
		assert.Equal(t, core.DefaultSchema().Names(), s.Names())
	})

	t.Run("Fields in order", func(t *testing.T) {
		path := writeSchema(t, `
[[field]]
name = "desc"
type = "text"
required = true

[[field]]
name = "when"
type = "TIME"
default = "now"

[[field]]
name = "room"
description = "where"
`)
		s, err := LoadSchema(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"desc", "when", "room"}, s.Names())

		when, ok := s.Lookup("when")
		require.True(t, ok)
		assert.Equal(t, core.TypeTime, when.Type)
		assert.Equal(t, core.DefaultNow, when.Default)

		room, _ := s.Lookup("room")
		assert.Equal(t, core.TypeString, room.Type)
		assert.Equal(t, "where", room.Description)
	})

	t.Run("Rejected", func(t *testing.T) {
		cases := map[string]string{
			"unknown type": "[[field]]\nname = \"x\"\ntype = \"blob\"\n",
			"unknown key":  "[[field]]\nname = \"x\"\ncolor = \"red\"\n",
			"reserved":     "[[field]]\nname = \"author\"\n",
			"empty":        "",
			"syntax":       "[[field]\n",
		}
		for name, content := range cases {
			_, err := LoadSchema(writeSchema(t, content))
			assert.Error(t, err, name)
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadSchema(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}
