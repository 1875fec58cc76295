package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/logbook/pkg/core"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configuration and state of the logbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			st, ok := svc.State().(core.ServiceState)
			if !ok {
				return fmt.Errorf("unexpected service state %T", svc.State())
			}
			a.render.Status(a.cfg.DataDir, st)
			return nil
		},
	}
}
