package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/aretw0/logbook/pkg/core"
)

// formCollector asks for every requested field in one huh form.
type formCollector struct{}

func (formCollector) Collect(ctx context.Context, reqs []core.Request) (map[string]string, error) {
	values := make([]string, len(reqs))
	fields := make([]huh.Field, 0, len(reqs))
	for i, r := range reqs {
		values[i] = r.Default
		switch r.Type {
		case core.TypeText:
			fields = append(fields, huh.NewText().
				Title(r.Name).
				Description(r.Description).
				Value(&values[i]))
		case core.TypeSecret:
			fields = append(fields, huh.NewInput().
				Title(r.Name).
				Description(r.Description).
				EchoMode(huh.EchoModePassword).
				Value(&values[i]))
		default:
			fields = append(fields, huh.NewInput().
				Title(r.Name).
				Description(r.Description).
				Value(&values[i]))
		}
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).RunWithContext(ctx); err != nil {
		return nil, promptError(err)
	}

	out := make(map[string]string, len(reqs))
	for i, r := range reqs {
		out[r.Name] = values[i]
	}
	return out, nil
}

// selectPicker lets the user choose one of several matching ids.
type selectPicker struct{}

func (selectPicker) Pick(ctx context.Context, prompt string, ids []string) (string, error) {
	var choice string
	sel := huh.NewSelect[string]().
		Title(prompt).
		Options(huh.NewOptions(ids...)...).
		Value(&choice)
	if err := huh.NewForm(huh.NewGroup(sel)).RunWithContext(ctx); err != nil {
		return "", promptError(err)
	}
	return choice, nil
}

// confirmPrompt asks before each deletion, showing the record summary.
type confirmPrompt struct {
	schema core.Schema
}

func (c confirmPrompt) Confirm(ctx context.Context, rec core.Record) (bool, error) {
	ok := false
	confirm := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %s?", rec.ShortID())).
		Description(rec.Summary(c.schema)).
		Affirmative("Delete").
		Negative("Keep").
		Value(&ok)
	if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
		return false, promptError(err)
	}
	return ok, nil
}

func promptError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return core.ErrAborted
	}
	return fmt.Errorf("prompt: %w", err)
}
