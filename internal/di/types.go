// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/rotation/internal/clients/yahoo"
	"github.com/aristath/rotation/internal/database"
	"github.com/aristath/rotation/internal/domain"
	"github.com/aristath/rotation/internal/events"
	"github.com/aristath/rotation/internal/metrics"
	"github.com/aristath/rotation/internal/modules/cleanup"
	"github.com/aristath/rotation/internal/modules/history"
	"github.com/aristath/rotation/internal/modules/ledger"
	"github.com/aristath/rotation/internal/modules/rotation"
	"github.com/aristath/rotation/internal/reliability"
	"github.com/aristath/rotation/internal/scheduler"
	"github.com/aristath/rotation/internal/services"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	HistoryDB *database.DB
	LedgerDB  *database.DB

	// Repositories
	HistoryRepo *history.Repository
	LedgerRepo  *ledger.Repository

	// Clients
	YahooClient *yahoo.Client

	// Infrastructure
	EventBus      *events.Bus
	EventManager  *events.Manager
	Metrics       *metrics.Registry
	BackupService *reliability.BackupService

	// Strategy and services
	Engine           *rotation.Engine
	Executor         domain.Executor
	PanelService     *services.PanelService
	RebalanceService *services.RebalanceService
}

// Databases returns every open database
func (c *Container) Databases() []*database.DB {
	dbs := make([]*database.DB, 0, 2)
	for _, db := range []*database.DB{c.HistoryDB, c.LedgerDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close closes all databases
func (c *Container) Close() {
	for _, db := range c.Databases() {
		_ = db.Close()
	}
}

// JobInstances holds the scheduled jobs for manual triggering
type JobInstances struct {
	Scheduler           *scheduler.Scheduler
	Rebalance           *scheduler.RebalanceJob
	Maintenance         *reliability.MaintenanceJob
	CheckWALCheckpoints *scheduler.CheckWALCheckpointsJob
	HistoryCleanup      *cleanup.HistoryCleanupJob
}
