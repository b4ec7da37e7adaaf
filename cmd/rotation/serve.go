package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/rotation/internal/server"
)

func newServeCmd(load func(context.Context) (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the rebalance scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			srv := server.New(server.Config{
				Log:          a.log,
				Port:         a.cfg.Port,
				DevMode:      a.cfg.DevMode,
				DataDir:      a.cfg.DataDir,
				Databases:    a.container.Databases(),
				EventManager: a.container.EventManager,
				Metrics:      a.container.Metrics,
				Rotation:     a.container.RebalanceService,
				Ledger:       a.container.LedgerRepo,
			})

			a.jobs.Scheduler.Start()

			serverErr := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
				close(serverErr)
			}()

			a.log.Info().
				Str("executor", a.container.Executor.Name()).
				Str("rebalance_cron", a.cfg.RebalanceCron).
				Str("tz", a.cfg.Timezone.String()).
				Msg("Rotation service started")

			select {
			case <-ctx.Done():
				a.log.Info().Msg("Shutting down")
			case err := <-serverErr:
				if err != nil {
					a.log.Error().Err(err).Msg("HTTP server failed")
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Error().Err(err).Msg("Server forced to shutdown")
			}
			a.jobs.Scheduler.Stop()

			a.log.Info().Msg("Shutdown complete")
			return nil
		},
	}
}
