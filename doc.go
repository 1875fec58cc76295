// Package logbook is the composition root of a git-backed log of structured records.
//
// Each record is a small YAML document named after the git blob hash of its first content,
// stored in a data directory that is itself a git repository. Every add, edit and delete is
// one commit, so the full history of a record stays available after it changes or goes away.
//
// Features:
//
//   - **Schema-driven records**: an ordered field table (string, text, time, secret) validates
//     and encodes every record; a TOML file may replace the default access log schema.
//   - **Content identifiers**: ids never change after the first save, and any unique prefix
//     resolves to a record.
//   - **Shadow sync**: push and fetch run on a dedicated branch in its own worktree, so a
//     conflicting remote never touches the working files.
//
// Usage:
//
//	svc, err := logbook.New(ctx, "~/logs",
//		logbook.WithAutoInit(true),
//		logbook.WithAuthor(logbook.Identity{Name: "Ada", Email: "ada@example.com"}),
//	)
//
//	rec, err := svc.Add(ctx, map[string]string{"desc": "rotated keys", "host": "db1"})
package logbook
