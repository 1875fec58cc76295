package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/aretw0/logbook/pkg/core"
)

const secretMask = "********"

// renderer writes command output. Colors are dropped when the output is not a terminal.
type renderer struct {
	out   io.Writer
	id    lipgloss.Style
	label lipgloss.Style
	dim   lipgloss.Style
	added lipgloss.Style
	gone  lipgloss.Style
}

func newRenderer(w io.Writer, color bool) *renderer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &renderer{
		out:   w,
		id:    r.NewStyle().Foreground(lipgloss.Color("3")),
		label: r.NewStyle().Bold(true),
		dim:   r.NewStyle().Faint(true),
		added: r.NewStyle().Foreground(lipgloss.Color("2")),
		gone:  r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// firstTime returns the first time field of the record, or the zero time.
func firstTime(rec core.Record, schema core.Schema) time.Time {
	for _, f := range schema.OfType(core.TypeTime) {
		if t := rec.Time(f.Name); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// List prints one line per record: short id, time, summary.
func (p *renderer) List(recs []core.Record, schema core.Schema) {
	for _, rec := range recs {
		when := ""
		if t := firstTime(rec, schema); !t.IsZero() {
			when = t.Format(time.RFC3339)
		}
		fmt.Fprintf(p.out, "%s  %-25s  %s\n", p.id.Render(rec.ShortID()), when, rec.Summary(schema))
	}
}

// JSON prints records with their stored values.
func (p *renderer) JSON(recs []core.Record, schema core.Schema) error {
	type item struct {
		ID     string            `json:"id"`
		Author string            `json:"author"`
		Fields map[string]string `json:"fields"`
	}
	items := make([]item, 0, len(recs))
	for _, rec := range recs {
		stored, err := schema.Stored(rec.Fields)
		if err != nil {
			return err
		}
		for _, f := range schema.OfType(core.TypeSecret) {
			if stored[f.Name] != "" {
				stored[f.Name] = secretMask
			}
		}
		items = append(items, item{ID: rec.ID, Author: rec.Author, Fields: stored})
	}
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// recordLines lays out a record as aligned "name: value" lines. Secrets are masked unless
// reveal is set; multi-line values continue under the value column.
func recordLines(rec core.Record, schema core.Schema, reveal bool) [][2]string {
	stored, err := schema.Stored(rec.Fields)
	if err != nil {
		stored = map[string]string{}
	}
	lines := [][2]string{{"author", rec.Author}}
	names := append(schema.Names(), schema.Extras(rec.Fields)...)
	for _, name := range names {
		v, ok := stored[name]
		if !ok {
			v = fmt.Sprint(rec.Fields[name])
		}
		if f, ok := schema.Lookup(name); ok && f.Type == core.TypeSecret && v != "" && !reveal {
			v = secretMask
		}
		lines = append(lines, [2]string{name, v})
	}
	return lines
}

func layout(lines [][2]string) []string {
	width := 0
	for _, l := range lines {
		width = max(width, len(l[0]))
	}
	pad := strings.Repeat(" ", width+3)
	var out []string
	for _, l := range lines {
		first, rest, _ := strings.Cut(l[1], "\n")
		out = append(out, strings.TrimRight(fmt.Sprintf("%-*s  %s", width+1, l[0]+":", first), " "))
		if rest == "" {
			continue
		}
		for _, cont := range strings.Split(rest, "\n") {
			out = append(out, strings.TrimRight(pad+cont, " "))
		}
	}
	return out
}

// Record prints every field of one record.
func (p *renderer) Record(rec core.Record, schema core.Schema, reveal bool) {
	fmt.Fprintf(p.out, "%s %s\n", p.label.Render("record"), p.id.Render(rec.ID))
	for _, line := range layout(recordLines(rec, schema, reveal)) {
		fmt.Fprintln(p.out, line)
	}
}

// History prints versions newest first. With diff set each version shows the changes it made
// to the one before it.
func (p *renderer) History(versions []core.Version, schema core.Schema, diff bool) {
	for i, v := range versions {
		subject, _, _ := strings.Cut(v.Message, "\n")
		state := ""
		if v.Deleted {
			state = " " + p.gone.Render("(deleted)")
		}
		fmt.Fprintf(p.out, "%s  %s  %s%s\n",
			p.id.Render(core.ShortID(v.Commit)),
			v.When.UTC().Format(time.RFC3339),
			subject, state)
		if !diff || v.Deleted {
			continue
		}

		var older string
		if i+1 < len(versions) {
			older = strings.Join(layout(recordLines(versions[i+1].Record, schema, false)), "\n") + "\n"
		}
		newer := strings.Join(layout(recordLines(v.Record, schema, false)), "\n") + "\n"
		p.diff(older, newer)
	}
}

func (p *renderer) diff(older, newer string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(older, newer)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fmt.Fprintln(p.out, p.added.Render("    + "+line))
			case diffmatchpatch.DiffDelete:
				fmt.Fprintln(p.out, p.gone.Render("    - "+line))
			default:
				fmt.Fprintln(p.out, p.dim.Render("      "+line))
			}
		}
	}
}

// Status prints the service state and the data directory.
func (p *renderer) Status(dataDir string, st core.ServiceState) {
	sync := "off"
	if st.Syncing {
		sync = string(st.SyncState)
	}
	lines := [][2]string{
		{"data dir", dataDir},
		{"store", st.StoreType},
		{"author", st.Author},
		{"fields", strings.Join(st.Fields, ", ")},
		{"sync", sync},
	}
	for _, line := range layout(lines) {
		fmt.Fprintln(p.out, line)
	}
}

// Event prints one watched change.
func (p *renderer) Event(e core.Event) {
	fmt.Fprintf(p.out, "%-6s %s\n", e.Type, p.id.Render(e.ID))
}
