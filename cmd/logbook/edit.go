package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/logbook/pkg/core"
)

func newEditCmd(a *app) *cobra.Command {
	var (
		set     map[string]string
		message string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a record",
		Long: `Edit the record a (partial) id resolves to. The id never changes: the commit records
the superseded version instead. Without --set the record is edited interactively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			ctx := withReason(cmd.Context(), message)

			var rec core.Record
			switch {
			case len(set) > 0:
				rec, err = svc.EditFields(ctx, args[0], set)
			case a.interactive:
				rec, err = svc.Edit(ctx, args[0])
			default:
				return fmt.Errorf("no change given, use --set outside a terminal: %w", errDeclined)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "edited %s\n", rec.ID)
			return nil
		},
	}

	cmd.Flags().StringToStringVarP(&set, "set", "s", nil, "field value, name=value (repeatable)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (change reason)")
	return cmd
}
