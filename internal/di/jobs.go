package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/rotation/internal/config"
	"github.com/aristath/rotation/internal/modules/cleanup"
	"github.com/aristath/rotation/internal/reliability"
	"github.com/aristath/rotation/internal/scheduler"
)

const (
	// walCheckSchedule runs the WAL status check at the top of every hour
	walCheckSchedule = "0 0 * * * *"
	// historyCleanupSchedule runs after the nightly maintenance
	historyCleanupSchedule = "0 30 3 * * *"
)

// RegisterJobs creates the background jobs and registers them with a new
// scheduler. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		Scheduler: scheduler.New(cfg.Timezone, log),
		Rebalance: scheduler.NewRebalanceJob(container.RebalanceService, cfg.Timezone, log),
		Maintenance: reliability.NewMaintenanceJob(
			container.Databases(),
			container.BackupService,
			cfg.DataDir,
			cfg.Backup.RetentionDays,
			log,
		),
		CheckWALCheckpoints: scheduler.NewCheckWALCheckpointsJob(container.Databases(), log),
		HistoryCleanup: cleanup.NewHistoryCleanupJob(
			container.HistoryRepo,
			cfg.Strategy.Symbols(),
			log,
		),
	}

	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.RebalanceCron, instances.Rebalance},
		{cfg.MaintenanceCron, instances.Maintenance},
		{walCheckSchedule, instances.CheckWALCheckpoints},
		{historyCleanupSchedule, instances.HistoryCleanup},
	}
	instances.Scheduler.SetObserver(container.Metrics)

	for _, reg := range registrations {
		if err := instances.Scheduler.AddJob(reg.schedule, reg.job); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", reg.job.Name(), err)
		}
	}

	return instances, nil
}
