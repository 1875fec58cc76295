package main

import (
	"fmt"

	"github.com/spf13/cobra"

	lcsource "github.com/aretw0/logbook/pkg/adapters/lifecycle"
	"github.com/aretw0/logbook/pkg/core"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print records as they change on disk",
		Long:  `Watch the data directory and print one line per created, modified or deleted record until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.store(ctx)
			if err != nil {
				return err
			}
			w, ok := store.(core.Watchable)
			if !ok {
				return fmt.Errorf("store cannot be watched")
			}
			events, err := w.Watch(ctx)
			if err != nil {
				return err
			}
			src := lcsource.NewSource(events)
			if err := src.Start(ctx); err != nil {
				return err
			}
			a.logger.Info("watching", "path", a.cfg.DataDir)
			for e := range src.Events() {
				if ev, ok := e.(core.Event); ok {
					a.render.Event(ev)
				}
			}
			return nil
		},
	}
}
