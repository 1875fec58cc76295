package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the data directory (git init)",
		Long: `Create the configured data directory, make it a git repository, and commit the
ignore file for the logbook system directory. Running it again is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.service(cmd.Context(), true); err != nil {
				return fmt.Errorf("initialize logbook: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Initialized logbook in", a.cfg.DataDir)
			return nil
		},
	}
}
