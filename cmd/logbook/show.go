package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/logbook/pkg/core"
)

func newShowCmd(a *app) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a record (the last one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}

			var rec core.Record
			if len(args) == 0 {
				rec, err = svc.LastLog(ctx)
			} else {
				rec, err = svc.Find(ctx, args[0])
			}
			if err != nil {
				return err
			}
			a.render.Record(rec, svc.Schema(), reveal)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print secret fields in clear")
	return cmd
}

func newRecentCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently changed records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			recs, err := svc.RecentLogs(ctx, count)
			if err != nil {
				return err
			}
			a.render.List(recs, svc.Schema())
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of records")
	return cmd
}
