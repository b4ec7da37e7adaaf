package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/rotation/internal/config"
	"github.com/aristath/rotation/internal/di"
	"github.com/aristath/rotation/pkg/logger"
)

// app is the wired application shared by the subcommands
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	container *di.Container
	jobs      *di.JobInstances
}

func newRootCmd() *cobra.Command {
	var strategyFile string

	root := &cobra.Command{
		Use:           "rotation",
		Short:         "Monthly momentum rotation with trend, absolute-return and volatility gates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&strategyFile, "strategy", "", "YAML strategy file (overrides STRATEGY_FILE)")

	load := func(ctx context.Context) (*app, error) {
		if strategyFile != "" {
			_ = os.Setenv("STRATEGY_FILE", strategyFile)
		}
		return loadApp(ctx)
	}

	root.AddCommand(
		newServeCmd(load),
		newScreenCmd(load),
		newRebalanceCmd(load),
		newSyncCmd(load),
	)
	return root
}

// loadApp loads configuration, sets up logging and wires dependencies
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger.SetGlobalLogger(log)

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, container: container, jobs: jobs}, nil
}

func (a *app) close() {
	a.container.Close()
}
