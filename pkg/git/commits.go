package git

import (
	"strings"
)

// Commit verbs, one per mutation of a record.
const (
	CommitAdd    = "add"
	CommitEdit   = "edit"
	CommitDelete = "delete"
)

// PreviousVersionTrailer names the blob an edit replaced.
const PreviousVersionTrailer = "Previous-Version"

// FormatCommitMessage builds the message of a record mutation:
//
//	<verb> <id>: <summary>
//
//	Previous-Version: <blob>
//
// The summary is cut to its first line. Empty summary and previous are omitted.
func FormatCommitMessage(verb, id, summary, previous string) string {
	var sb strings.Builder

	sb.WriteString(verb)
	sb.WriteString(" ")
	sb.WriteString(id)

	line, _, _ := strings.Cut(strings.TrimSpace(summary), "\n")
	if line = strings.TrimSpace(line); line != "" {
		sb.WriteString(": ")
		sb.WriteString(line)
	}

	if previous != "" {
		sb.WriteString("\n\n")
		sb.WriteString(PreviousVersionTrailer)
		sb.WriteString(": ")
		sb.WriteString(previous)
	}

	return sb.String()
}

// ParseTrailer returns the value of the named trailer in msg, or "".
func ParseTrailer(msg, name string) string {
	prefix := name + ": "
	for _, line := range strings.Split(msg, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), prefix); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Subject returns the first line of a commit message.
func Subject(msg string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	return line
}
