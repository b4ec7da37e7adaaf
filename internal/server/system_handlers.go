package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/rotation/internal/database"
)

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	HostUptime    uint64  `json:"host_uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	Goroutines    int     `json:"goroutines"`
	GoVersion     string  `json:"go_version"`
}

// DiskUsageResponse is returned by GET /api/system/disk
type DiskUsageResponse struct {
	Path        string  `json:"path"`
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// SystemHandlers serves process, host and database status
type SystemHandlers struct {
	dataDir   string
	databases []*database.DB
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(log zerolog.Logger, dataDir string, databases []*database.DB) *SystemHandlers {
	return &SystemHandlers{
		dataDir:   dataDir,
		databases: databases,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemStatus returns uptime, CPU and RAM usage
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats(r.Context())
	hostUptime, err := host.UptimeWithContext(r.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get host uptime")
	}

	writeData(w, h.log, http.StatusOK, SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		HostUptime:    hostUptime,
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
	})
}

// HandleDatabaseStats returns size and page counts for each database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	stats := make([]*database.Stats, 0, len(h.databases))
	var totalBytes int64
	for _, db := range h.databases {
		s, err := db.GetStats(r.Context())
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			continue
		}
		totalBytes += s.SizeBytes + s.WALSizeBytes
		stats = append(stats, s)
	}

	writeData(w, h.log, http.StatusOK, map[string]interface{}{
		"databases":   stats,
		"total_bytes": totalBytes,
	})
}

// HandleDiskUsage returns usage of the volume holding the data directory
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	usage, err := disk.UsageWithContext(r.Context(), h.dataDir)
	if err != nil {
		h.log.Error().Err(err).Str("path", h.dataDir).Msg("Failed to get disk usage")
		writeJSON(w, h.log, http.StatusInternalServerError, map[string]string{"error": "Failed to get disk usage"})
		return
	}

	writeData(w, h.log, http.StatusOK, DiskUsageResponse{
		Path:        h.dataDir,
		TotalMB:     float64(usage.Total) / 1024 / 1024,
		FreeMB:      float64(usage.Free) / 1024 / 1024,
		UsedPercent: usage.UsedPercent,
	})
}

// getSystemStats calculates CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the call fast.
func (h *SystemHandlers) getSystemStats(ctx context.Context) (float64, float64) {
	cpuPercent, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
