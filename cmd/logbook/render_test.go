package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/aretw0/logbook/pkg/core"
)

const (
	rotatedID = "297aacc5d1c2e80f1b4f0a9f3c0c29a8f2b4e611"
	checkedID = "ffffff1e0b7a3c55d2e4f6a8b0c1d2e3f4a5b6c7"
	author    = "Ada <ada@example.com>"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func plain(buf *bytes.Buffer) *renderer {
	return newRenderer(buf, false)
}

var day = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func rotated(host string) core.Record {
	return core.Record{
		ID:     rotatedID,
		Author: author,
		Fields: core.Fields{"desc": "Rotated keys", "time": day, "host": host},
	}
}

func TestRenderList(t *testing.T) {
	var buf bytes.Buffer
	recs := []core.Record{
		rotated("db1"),
		{ID: checkedID, Author: author, Fields: core.Fields{"desc": "Checked\nbackups"}},
	}
	plain(&buf).List(recs, core.DefaultSchema())
	newGolden(t).Assert(t, "list", buf.Bytes())
}

func TestRenderRecord(t *testing.T) {
	rec := core.Record{
		ID:     rotatedID,
		Author: author,
		Fields: core.Fields{
			"desc":     "Rotated keys",
			"time":     day,
			"host":     "db1",
			"password": "hunter2",
			"comment":  "first line\nsecond line",
			"legacy":   "x",
		},
	}

	var buf bytes.Buffer
	plain(&buf).Record(rec, core.DefaultSchema(), false)
	newGolden(t).Assert(t, "record", buf.Bytes())

	buf.Reset()
	plain(&buf).Record(rec, core.DefaultSchema(), true)
	if !bytes.Contains(buf.Bytes(), []byte("password:  hunter2")) {
		t.Errorf("revealed record should show the secret:\n%s", buf.String())
	}
}

func TestRenderHistory(t *testing.T) {
	schema := core.MustSchema(
		core.Field{Name: "desc", Type: core.TypeText, Required: true},
		core.Field{Name: "time", Type: core.TypeTime},
		core.Field{Name: "host", Type: core.TypeString},
	)
	versions := []core.Version{
		{
			Commit:  "c3a1f00d00000000000000000000000000000000",
			When:    day.Add(48 * time.Hour),
			Message: "delete " + rotatedID,
			Deleted: true,
			Record:  rotated("db2"),
		},
		{
			Commit:  "b2e7d00d00000000000000000000000000000000",
			When:    day.Add(24 * time.Hour),
			Message: "edit " + rotatedID + ": Rotated keys\n\nPrevious-Version: 1111111111111111111111111111111111111111",
			Record:  rotated("db2"),
		},
		{
			Commit:  "a19c400d00000000000000000000000000000000",
			When:    day,
			Message: "add " + rotatedID + ": Rotated keys",
			Record:  rotated("db1"),
		},
	}

	var buf bytes.Buffer
	plain(&buf).History(versions, schema, false)
	newGolden(t).Assert(t, "history", buf.Bytes())

	buf.Reset()
	plain(&buf).History(versions, schema, true)
	newGolden(t).Assert(t, "history_diff", buf.Bytes())
}

func TestRenderStatus(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).Status("/srv/logbook", core.ServiceState{
		Author:    author,
		Fields:    []string{"desc", "time", "host"},
		StoreType: "fs-store",
		Syncing:   true,
		SyncState: core.SyncIdle,
	})
	newGolden(t).Assert(t, "status", buf.Bytes())
}

func TestRenderEvent(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).Event(core.Event{Type: core.EventCreate, ID: rotatedID})
	if got, want := buf.String(), "CREATE "+rotatedID+"\n"; got != want {
		t.Errorf("Event() = %q, want %q", got, want)
	}
}
