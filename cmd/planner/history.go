package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/tasking-planner/internal/report"
	"github.com/signalsfoundry/tasking-planner/internal/store"
)

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded planning runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.Store.Path
			if path == "" {
				return errors.New("no run database: set --db or store.path")
			}
			st, err := store.Open(path)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			runs, err := st.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			rate, total, err := st.FailureRate(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tPROBLEM\tDOMAIN\tPLAN\tNODES\tDURATION\tBATCH")
			for _, r := range runs {
				length := strconv.Itoa(r.PlanLength)
				if r.Failed {
					length = report.Failed
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.Problem, r.Domain, length, r.NodesExpanded, r.Duration, r.BatchID)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d runs recorded, %.1f%% failed\n", total, rate*100)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of most recent runs to show (0 for all)")
	cmd.Flags().String("db", "", "run database path")
	return cmd
}
