package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/internal/report"
	"github.com/signalsfoundry/tasking-planner/internal/store"
)

func newBatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Plan every problem file in a directory and write a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.newRunner().RunBatch(ctx, args[0])
			if err != nil {
				return err
			}
			rows := b.Rows()

			var out io.Writer = cmd.OutOrStdout()
			if path := a.cfg.Batch.Report; path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create report: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := report.Write(out, rows); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			if path := a.cfg.Store.Path; path != "" {
				st, err := store.Open(path)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.SaveRuns(ctx, b.Records()); err != nil {
					return err
				}
				a.log.Debug(ctx, "recorded batch", logging.String("batch_id", b.ID), logging.String("db", path))
			}

			fmt.Fprintln(cmd.ErrOrStderr(), report.Summarize(rows))
			return nil
		},
	}
	cmd.Flags().String("report", "", "write the report to this file instead of stdout")
	cmd.Flags().Int("workers", 0, "problems planned concurrently")
	cmd.Flags().String("pattern", "", "only plan files whose name contains this")
	cmd.Flags().String("db", "", "record runs in this SQLite database")
	return cmd
}
