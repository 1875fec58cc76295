package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete records",
		Long: `Delete every record the given (partial) ids match, asking for each one unless
--force is set. Each deletion is its own commit, so the history of the record remains.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}

			deleted, err := svc.Delete(cmd.Context(), args, force)
			for _, id := range deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			if err != nil {
				return err
			}
			if len(deleted) == 0 {
				if !force && !a.interactive {
					return fmt.Errorf("no record deleted, use --force outside a terminal: %w", errDeclined)
				}
				return fmt.Errorf("no record deleted: %w", errDeclined)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without asking")
	return cmd
}
