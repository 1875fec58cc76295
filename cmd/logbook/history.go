package main

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var diff bool

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show every committed version of a record",
		Long: `Show the versions of a record, newest first. The full id of a deleted record still
works. With --diff each version shows what it changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			versions, err := svc.History(ctx, args[0])
			if err != nil {
				return err
			}
			a.render.History(versions, svc.Schema(), diff)
			return nil
		},
	}

	cmd.Flags().BoolVar(&diff, "diff", false, "show the changes of each version")
	return cmd
}
