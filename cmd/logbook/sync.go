package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPushCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push [remote]",
		Short: "Push records to a remote",
		Long: `Push the shadow branch to the remote (name, URL or path; the configured remote by
default). When the remote is ahead, its changes are fetched and merged first and the
push is retried once. Conflicts are left in the shadow worktree for manual resolution.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := a.remote(args)
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := svc.Push(cmd.Context(), remote); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "pushed to", remote)
			return nil
		},
	}
}

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [remote]",
		Short: "Fetch and merge records from a remote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := a.remote(args)
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := svc.Fetch(cmd.Context(), remote); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "fetched from", remote)
			return nil
		},
	}
}

func (a *app) remote(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Remote
}
