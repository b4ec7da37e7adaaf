package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/rotation/internal/database"
)

// criticalFreeBytes halts maintenance when free disk space drops below it
const criticalFreeBytes = 500 * 1024 * 1024

// MaintenanceJob runs daily database upkeep: integrity checks, WAL
// checkpoints, a disk space check and backup rotation.
type MaintenanceJob struct {
	databases     []*database.DB
	backup        *BackupService
	dataDir       string
	retentionDays int
	log           zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(
	databases []*database.DB,
	backup *BackupService,
	dataDir string,
	retentionDays int,
	log zerolog.Logger,
) *MaintenanceJob {
	return &MaintenanceJob{
		databases:     databases,
		backup:        backup,
		dataDir:       dataDir,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "maintenance").Logger(),
	}
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	j.log.Info().Msg("Starting maintenance")
	start := time.Now()

	for _, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		if err := db.WALCheckpoint(ctx); err != nil {
			// Not critical, the next checkpoint will catch up
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	if j.backup.Enabled() {
		if _, err := j.backup.RotateOldBackups(ctx, j.retentionDays); err != nil {
			j.log.Error().Err(err).Msg("Backup rotation failed")
		}
	}

	j.log.Info().Dur("duration", time.Since(start)).Msg("Maintenance completed")
	return nil
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

func (j *MaintenanceJob) checkDiskSpace() error {
	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(usage.Free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if usage.Free < criticalFreeBytes {
		return fmt.Errorf("only %.2f GB free in %s", availableGB, j.dataDir)
	}
	if usage.UsedPercent > 90 {
		j.log.Warn().Float64("used_percent", usage.UsedPercent).Msg("Disk space running low")
	}
	return nil
}
