package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/checkup/internal/database"
	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/version"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// DatabaseStats is the database view the status endpoint needs
type DatabaseStats interface {
	HealthCheck(ctx context.Context) error
	GetStats() (*database.Stats, error)
}

// StatusCounter counts checkups per payment status
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
}

// JobLister lists the registered background jobs
type JobLister interface {
	Jobs() []string
}

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	db        DatabaseStats
	checkups  StatusCounter
	jobs      JobLister
	startedAt time.Time
	hostStats func() HostStats
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string                `json:"status"` // ok or degraded
	Version       string                `json:"version"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Database      DatabaseStatus        `json:"database"`
	Checkups      map[domain.Status]int `json:"checkups"`
	Host          HostStats             `json:"host"`
	Jobs          []string              `json:"jobs"`
}

// DatabaseStatus reports database health and size
type DatabaseStatus struct {
	Healthy bool            `json:"healthy"`
	Error   string          `json:"error,omitempty"`
	Stats   *database.Stats `json:"stats,omitempty"`
}

// HostStats reports machine resource usage
type HostStats struct {
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	DiskFreeGB      float64 `json:"disk_free_gb"`
	DiskUsedPercent float64 `json:"disk_used_percent"`
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, dataDir string, db DatabaseStats, checkups StatusCounter, jobs JobLister) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		db:        db,
		checkups:  checkups,
		jobs:      jobs,
		startedAt: time.Now(),
	}
	h.hostStats = h.collectHostStats
	return h
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	resp := SystemStatusResponse{
		Status:        "ok",
		Version:       version.Version,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Checkups:      map[domain.Status]int{},
		Host:          h.hostStats(),
		Jobs:          h.jobs.Jobs(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Database health check failed")
		resp.Status = "degraded"
		resp.Database.Error = err.Error()
	} else {
		resp.Database.Healthy = true
	}

	if stats, err := h.db.GetStats(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
	} else {
		resp.Database.Stats = stats
	}

	if counts, err := h.checkups.CountByStatus(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Failed to count checkups")
		resp.Status = "degraded"
	} else {
		resp.Checkups = counts
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// collectHostStats samples CPU over 100ms; memory and disk are instant
func (h *SystemHandlers) collectHostStats() HostStats {
	var stats HostStats

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}

	if memStat, err := mem.VirtualMemory(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		stats.MemoryPercent = memStat.UsedPercent
	}

	if usage, err := disk.Usage(h.dataDir); err != nil {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
	} else {
		stats.DiskFreeGB = float64(usage.Free) / 1e9
		stats.DiskUsedPercent = usage.UsedPercent
	}

	return stats
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
