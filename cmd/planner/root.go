package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/tasking-planner/internal/config"
	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/internal/observability"
	"github.com/signalsfoundry/tasking-planner/internal/runner"
)

// flagKeys maps command-line flags onto configuration keys. A flag only
// overrides the file and environment when it is set explicitly.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"max-expansions": "planner.max_expansions",
	"workers":        "batch.workers",
	"pattern":        "batch.pattern",
	"report":         "batch.report",
	"db":             "store.path",
}

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfgFile string

	cfg      *config.Config
	log      logging.Logger
	shutdown func(context.Context) error
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "planner",
		Short: "Hierarchical task planner for satellite observation problems",
		Long: `planner decomposes satellite observation goals (pointing and imaging)
into primitive actions: slews, instrument power, calibration, and image capture.
It also solves blocks-world problems with the same engine.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			observability.ShutdownWithTimeout(cmd.Context(), a.shutdown, a.log)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (default ./planner.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int("max-expansions", 0, "cap on decomposition steps per run (negative disables)")

	rootCmd.AddCommand(newPlanCommand(a))
	rootCmd.AddCommand(newBatchCommand(a))
	rootCmd.AddCommand(newHistoryCommand(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	v, err := config.NewViper(a.cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	a.log = logging.New(logCfg)

	shutdown, err := observability.InitTracing(cmd.Context(), cfg.TracingConfig(), a.log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.shutdown = shutdown
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func (a *app) newRunner() *runner.Runner {
	return runner.New(runner.Options{
		Planner: a.cfg.HTN(),
		Workers: a.cfg.Batch.Workers,
		Pattern: a.cfg.Batch.Pattern,
		Logger:  a.log,
	})
}
