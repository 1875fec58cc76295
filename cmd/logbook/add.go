package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/logbook/pkg/core"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		set         map[string]string
		interactive bool
		message     string
	)

	cmd := &cobra.Command{
		Use:   "add [text...]",
		Short: "Add a record",
		Long: `Add a record. Field values come from --set; positional words fill the first text
field. With -i, or without any value on a terminal, every field is asked for and the
text fields are written in the editor.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			ctx := withReason(cmd.Context(), message)

			raw := make(map[string]string, len(set)+1)
			for k, v := range set {
				raw[k] = v
			}
			if len(args) > 0 {
				if texts := svc.Schema().OfType(core.TypeText); len(texts) > 0 {
					raw[texts[0].Name] = strings.Join(args, " ")
				}
			}

			var rec core.Record
			if interactive || (len(raw) == 0 && a.interactive) {
				rec, err = svc.AddInteractive(ctx, raw)
			} else {
				rec, err = svc.Add(ctx, raw)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", rec.ID)
			return nil
		},
	}

	cmd.Flags().StringToStringVarP(&set, "set", "s", nil, "field value, name=value (repeatable)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask for every field")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (change reason)")
	return cmd
}

// withReason overrides the commit message of the next change.
func withReason(ctx context.Context, msg string) context.Context {
	if msg == "" {
		return ctx
	}
	return context.WithValue(ctx, core.ChangeReasonKey, msg)
}
