package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/logbook"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of logbook",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "logbook version %s\n", logbook.Version)
		},
	}
}
