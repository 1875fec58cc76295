package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// commandEditor edits text in the user's editor through a temporary file.
type commandEditor struct {
	command string
}

func (e *commandEditor) Edit(ctx context.Context, initial []byte) ([]byte, error) {
	args := strings.Fields(e.command)
	if len(args) == 0 {
		return nil, fmt.Errorf("no editor configured")
	}

	f, err := os.CreateTemp("", "logbook-*.txt")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(initial); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("editor %s failed: %w", args[0], err)
	}
	return os.ReadFile(path)
}
