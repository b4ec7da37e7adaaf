package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/clients/yahoo"
	"github.com/aristath/rotation/internal/config"
	"github.com/aristath/rotation/internal/events"
	"github.com/aristath/rotation/internal/execution"
	"github.com/aristath/rotation/internal/metrics"
	"github.com/aristath/rotation/internal/modules/history"
	"github.com/aristath/rotation/internal/modules/ledger"
	"github.com/aristath/rotation/internal/modules/rotation"
	"github.com/aristath/rotation/internal/reliability"
	"github.com/aristath/rotation/internal/services"
)

// InitializeRepositories creates the repositories over the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.HistoryRepo = history.NewRepository(container.HistoryDB.Conn(), log)
	container.LedgerRepo = ledger.NewRepository(container.LedgerDB.Conn(), log)
	return nil
}

// InitializeServices creates clients, infrastructure and services
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	engine, err := rotation.New(cfg.Strategy)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	container.Engine = engine

	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)
	container.Metrics = metrics.NewRegistry()

	container.YahooClient = yahoo.NewClient(yahoo.Config{
		BaseURL:           cfg.Yahoo.BaseURL,
		RequestsPerSecond: cfg.Yahoo.RequestsPerSecond,
		Timeout:           cfg.Yahoo.Timeout,
	}, log)

	switch cfg.Executor {
	case config.ExecutorLog:
		container.Executor = execution.NewLogExecutor(log)
	default:
		container.Executor = execution.NewPaperBroker(container.LedgerRepo, log)
	}

	var store reliability.ObjectStore
	if cfg.Backup.Enabled() {
		s3Store, err := reliability.NewS3Store(ctx, reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Region:          cfg.Backup.Region,
			Endpoint:        cfg.Backup.Endpoint,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		store = s3Store
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Ledger backups enabled")
	}
	container.BackupService = reliability.NewBackupService(container.LedgerDB, store, cfg.Backup.Prefix, log)

	container.PanelService = services.NewPanelService(
		container.YahooClient,
		container.HistoryRepo,
		container.Metrics,
		cfg.HistoryDays,
		cfg.PanelLimit(),
		log,
	)

	container.RebalanceService = services.NewRebalanceService(
		container.Engine,
		container.PanelService,
		container.Executor,
		container.LedgerRepo,
		container.EventManager,
		container.Metrics,
		container.BackupService,
		log,
	)

	return nil
}
