package fs

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/logbook/pkg/core"
)

func TestYAMLSerializer_Order(t *testing.T) {
	s := NewYAMLSerializer(core.DefaultSchema())
	rec := core.Record{
		Author: "Ada <ada@example.com>",
		Fields: core.Fields{
			"desc":    "reboot",
			"time":    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			"host":    "web1",
			"zeta":    "last",
			"alpha":   "first extra",
			"comment": "line one\nline two",
		},
	}

	data, err := s.Serialize(rec)
	require.NoError(t, err)

	want := `author: Ada <ada@example.com>
desc: reboot
time: "2026-03-01T12:00:00Z"
host: web1
protocol: ""
port: ""
user: ""
password: ""
comment: |-
  line one
  line two
alpha: first extra
zeta: last
`
	assert.Equal(t, want, string(data))

	again, err := s.Serialize(rec)
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding is deterministic")
}

func TestYAMLSerializer_Parse(t *testing.T) {
	s := NewYAMLSerializer(core.DefaultSchema())

	author, raw, err := s.Parse(strings.NewReader("author: ada\ndesc: x\nport: 22\nuser:\nid: ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "ada", author)
	assert.Equal(t, map[string]string{"desc": "x", "port": "22", "user": ""}, raw)

	_, _, err = s.Parse(strings.NewReader("- a\n- b\n"))
	assert.Error(t, err)

	_, _, err = s.Parse(strings.NewReader("desc:\n  nested: map\n"))
	assert.Error(t, err)

	_, raw, err = s.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestYAMLSerializer_Whitespace(t *testing.T) {
	schema := core.DefaultSchema()
	s := NewYAMLSerializer(schema)

	cases := map[string]string{
		"leading tab":        "\ttab\nb",
		"tab on second line": "a\n\tb",
		"leading spaces":     "  indented\nnext",
		"trailing newline":   "a\nb\n",
		"crlf":               "a\r\nb",
		"trailing space":     "a \nb",
		"only newlines":      "\n\n",
	}
	for name, comment := range cases {
		t.Run(name, func(t *testing.T) {
			rec := core.Record{
				Author: "Ada <ada@example.com>",
				Fields: core.Fields{"desc": "x", "comment": comment},
			}
			data, err := s.Serialize(rec)
			require.NoError(t, err)

			author, raw, err := s.Parse(bytes.NewReader(data))
			require.NoError(t, err, string(data))
			assert.Equal(t, rec.Author, author)
			assert.Equal(t, comment, raw["comment"])
		})
	}
}

func TestYAMLSerializer_RoundTrip(t *testing.T) {
	schema := core.DefaultSchema()
	s := NewYAMLSerializer(schema)

	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("parse inverts serialize", prop.ForAll(
		func(desc, host, comment string, unix int64) bool {
			rec := core.Record{
				Author: "Ada <ada@example.com>",
				Fields: core.Fields{
					"desc":    desc,
					"time":    time.Unix(unix, 0).UTC(),
					"host":    host,
					"comment": comment,
				},
			}
			data, err := s.Serialize(rec)
			if err != nil {
				return false
			}
			author, raw, err := s.Parse(bytes.NewReader(data))
			if err != nil || author != rec.Author {
				return false
			}
			fields, err := schema.Convert(raw)
			if err != nil {
				return false
			}
			again, err := s.Serialize(core.Record{Author: author, Fields: fields})
			return err == nil && bytes.Equal(data, again) &&
				fields["desc"] == desc && fields["host"] == host && fields["comment"] == comment
		},
		gen.RegexMatch("[ \ta-z\n]{0,24}"),
		gen.RegexMatch("[ \ta-z]{0,12}"),
		gen.RegexMatch("[ \ta-z\n]{0,24}"),
		gen.Int64Range(0, 4102444800),
	))

	properties.TestingRun(t)
}
