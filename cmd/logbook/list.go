package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/logbook/pkg/core"
)

func newListCmd(a *app) *cobra.Command {
	var (
		asJSON  bool
		matches []string
		since   string
	)

	cmd := &cobra.Command{
		Use:   "list [id...]",
		Short: "List records",
		Long: `List every record, or the records the given (partial) ids match.
--match field=glob keeps records whose stored value matches the glob (repeatable);
--since keeps records whose first time field is at or after the given time, which may be
written in natural language ("yesterday 3pm").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			schema := svc.Schema()

			filters := make([]core.Filter, 0, len(matches)+1)
			for _, m := range matches {
				field, glob, ok := strings.Cut(m, "=")
				if !ok {
					return &core.ValidationError{Field: m, Err: fmt.Errorf("expected field=glob")}
				}
				if _, known := schema.Lookup(field); !known {
					return &core.ValidationError{Field: field, Err: fmt.Errorf("unknown field")}
				}
				filters = append(filters, core.MatchField(schema, field, glob))
			}
			if since != "" {
				f, err := sinceFilter(schema, since)
				if err != nil {
					return err
				}
				filters = append(filters, f)
			}

			var ids []string
			for _, arg := range args {
				found, err := svc.MatchIDs(ctx, arg)
				if err != nil {
					return err
				}
				ids = append(ids, found...)
			}
			if len(args) > 0 && len(ids) == 0 {
				return &core.NotFoundError{ID: strings.Join(args, " ")}
			}

			var recs []core.Record
			for rec, err := range svc.CollectLogs(ctx, ids, core.All(filters...)) {
				if err != nil {
					a.logger.Warn("skipping record", "id", rec.ID, "error", err)
					continue
				}
				recs = append(recs, rec)
			}

			if asJSON {
				return a.render.JSON(recs, schema)
			}
			a.render.List(recs, schema)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	cmd.Flags().StringArrayVar(&matches, "match", nil, "field=glob filter (repeatable)")
	cmd.Flags().StringVar(&since, "since", "", "only records at or after this time")
	return cmd
}

func sinceFilter(schema core.Schema, value string) (core.Filter, error) {
	times := schema.OfType(core.TypeTime)
	if len(times) == 0 {
		return nil, &core.ValidationError{Field: "since", Err: fmt.Errorf("schema has no time field")}
	}
	v, err := times[0].ToMemory(value)
	if err != nil {
		return nil, &core.ValidationError{Field: "since", Err: err}
	}
	t, _ := v.(time.Time)
	return core.Since(times[0].Name, t), nil
}
