package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PreviewPurger deletes unpaid checkups not touched since before
type PreviewPurger interface {
	DeleteStalePreviews(ctx context.Context, before time.Time) (int64, error)
}

// PurgeStalePreviewsJob removes abandoned preview checkups
type PurgeStalePreviewsJob struct {
	purger    PreviewPurger
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewPurgeStalePreviewsJob creates the purge job.
// Previews idle for longer than retentionDays are removed.
func NewPurgeStalePreviewsJob(purger PreviewPurger, retentionDays int, log zerolog.Logger) *PurgeStalePreviewsJob {
	return &PurgeStalePreviewsJob{
		purger:    purger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		log:       log.With().Str("job", "purge_stale_previews").Logger(),
	}
}

// Name returns the job name
func (j *PurgeStalePreviewsJob) Name() string {
	return "purge_stale_previews"
}

// Run executes the purge
func (j *PurgeStalePreviewsJob) Run() error {
	if j.retention <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	deleted, err := j.purger.DeleteStalePreviews(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge stale previews: %w", err)
	}

	j.log.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Stale previews purged")
	return nil
}

// Backupper creates and rotates database backups
type Backupper interface {
	CreateAndUploadBackup(ctx context.Context) (string, error)
	RotateOldBackups(ctx context.Context, retentionDays int) (int, error)
}

// BackupJob uploads a fresh backup, then rotates old ones
type BackupJob struct {
	backups       Backupper
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates the backup job
func NewBackupJob(backups Backupper, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups:       backups,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run uploads a backup. Rotation only runs after a successful upload,
// and a failed rotation is logged without failing the job.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	key, err := j.backups.CreateAndUploadBackup(ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	deleted, err := j.backups.RotateOldBackups(ctx, j.retentionDays)
	if err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
		return nil
	}

	j.log.Info().Str("archive", key).Int("rotated", deleted).Msg("Backup job completed")
	return nil
}
