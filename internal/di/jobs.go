package di

import (
	"fmt"

	"github.com/aristath/checkup/internal/config"
	"github.com/aristath/checkup/internal/database"
	"github.com/aristath/checkup/internal/reliability"
	"github.com/aristath/checkup/internal/scheduler"
	"github.com/rs/zerolog"
)

// Job schedules (six-field cron, with seconds)
const (
	dailyMaintenanceSchedule = "0 0 2 * * *"
	weeklyVacuumSchedule     = "0 30 3 * * SUN"
	purgePreviewsSchedule    = "0 15 * * * *"
)

// RegisterJobs creates the background jobs and registers them with a new scheduler.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	databases := []*database.DB{container.CheckupsDB}

	jobs := &JobInstances{
		DailyMaintenance:   reliability.NewDailyMaintenanceJob(databases, cfg.DataDir, log),
		WeeklyVacuum:       reliability.NewWeeklyVacuumJob(databases, log),
		PurgeStalePreviews: scheduler.NewPurgeStalePreviewsJob(container.CheckupRepo, cfg.PreviewRetentionDays, log),
	}

	entries := []struct {
		schedule string
		job      scheduler.Job
	}{
		{dailyMaintenanceSchedule, jobs.DailyMaintenance},
		{weeklyVacuumSchedule, jobs.WeeklyVacuum},
		{purgePreviewsSchedule, jobs.PurgeStalePreviews},
	}

	if container.BackupService != nil {
		jobs.Backup = scheduler.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
		entries = append(entries, struct {
			schedule string
			job      scheduler.Job
		}{cfg.Backup.Schedule, jobs.Backup})
	}

	for _, e := range entries {
		if err := sched.AddJob(e.schedule, e.job); err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", e.job.Name(), err)
		}
	}

	container.Scheduler = sched
	container.Jobs = jobs
	return jobs, nil
}
