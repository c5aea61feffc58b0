package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/checkup/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

const (
	criticalFreeBytes = 500 << 20 // halt below this
	lowFreeBytes      = 5 << 30
)

// DailyMaintenanceJob checks integrity, truncates the WAL and watches disk space
type DailyMaintenanceJob struct {
	databases []*database.DB
	dataDir   string
	diskFree  func(path string) (uint64, error)
	log       zerolog.Logger
}

// NewDailyMaintenanceJob creates the daily maintenance job.
// dataDir is the directory whose filesystem is checked for free space.
func NewDailyMaintenanceJob(databases []*database.DB, dataDir string, log zerolog.Logger) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		diskFree:  freeBytes,
		log:       log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("CRITICAL: Database health check failed")
			return fmt.Errorf("health check failed for %s: %w", db.Name(), err)
		}

		// Not critical: the next checkpoint will catch up
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.logDatabaseMetrics()

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed")
	return nil
}

func (j *DailyMaintenanceJob) checkDiskSpace() error {
	free, err := j.diskFree(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(free) / 1e9
	switch {
	case free < criticalFreeBytes:
		j.log.Error().Float64("available_gb", availableGB).Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("only %.2f GB free in %s", availableGB, j.dataDir)
	case free < lowFreeBytes:
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	default:
		j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")
	}
	return nil
}

func (j *DailyMaintenanceJob) logDatabaseMetrics() {
	for _, db := range j.databases {
		stats, err := db.GetStats()
		if err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Failed to get metrics")
			continue
		}

		j.log.Info().
			Str("database", db.Name()).
			Float64("size_mb", float64(stats.SizeBytes)/1024/1024).
			Float64("wal_size_mb", float64(stats.WALSizeBytes)/1024/1024).
			Int64("freelist_pages", stats.FreelistCount).
			Msg("Database metrics")
	}
}

func freeBytes(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// WeeklyVacuumJob reclaims space left behind by purged previews
type WeeklyVacuumJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWeeklyVacuumJob creates the weekly VACUUM job
func NewWeeklyVacuumJob(databases []*database.DB, log zerolog.Logger) *WeeklyVacuumJob {
	return &WeeklyVacuumJob{
		databases: databases,
		log:       log.With().Str("job", "weekly_vacuum").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *WeeklyVacuumJob) Name() string {
	return "weekly_vacuum"
}

// Run vacuums every database; a failing database does not stop the others
func (j *WeeklyVacuumJob) Run() error {
	var firstErr error
	for _, db := range j.databases {
		if err := j.vacuum(db); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (j *WeeklyVacuumJob) vacuum(db *database.DB) error {
	before, err := db.GetStats()
	if err != nil {
		return err
	}

	if _, err := db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed for %s: %w", db.Name(), err)
	}

	after, err := db.GetStats()
	if err != nil {
		return err
	}

	sizeBefore := float64(before.PageCount*before.PageSize) / 1024 / 1024
	sizeAfter := float64(after.PageCount*after.PageSize) / 1024 / 1024
	j.log.Info().
		Str("database", db.Name()).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")
	return nil
}
