package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aristath/checkup/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:              t.TempDir(),
		Port:                 8080,
		LogLevel:             "info",
		Coupons:              []string{"AMIGO100"},
		PreviewRetentionDays: 30,
		OCR:                  config.OCRConfig{RatePerMinute: 30},
		Backup:               config.BackupConfig{Schedule: "0 0 3 * * *", RetentionDays: 30},
	}
}

func TestWire_Defaults(t *testing.T) {
	cfg := testConfig(t)

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	require.NotNil(t, container.CheckupsDB)
	assert.Equal(t, filepath.Join(cfg.DataDir, "checkups.db"), container.CheckupsDB.Path())
	assert.NotNil(t, container.CheckupRepo)
	assert.NotNil(t, container.CheckupService)
	assert.NotNil(t, container.CouponGate)
	assert.Nil(t, container.OCRClient)
	assert.Nil(t, container.BackupService)

	require.NotNil(t, container.Jobs)
	assert.Nil(t, container.Jobs.Backup)
	assert.Equal(t, []string{"daily_maintenance", "weekly_vacuum", "purge_stale_previews"}, container.Scheduler.Jobs())
}

func TestWire_WithOCRAndBackups(t *testing.T) {
	cfg := testConfig(t)
	cfg.OCR.BaseURL = "http://127.0.0.1:1"
	cfg.Backup.Bucket = "backups"
	cfg.Backup.Endpoint = "http://127.0.0.1:1"
	cfg.Backup.AccessKeyID = "id"
	cfg.Backup.SecretAccessKey = "secret"

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.OCRClient)
	assert.NotNil(t, container.BackupService)
	require.NotNil(t, container.Jobs.Backup)
	assert.Contains(t, container.Scheduler.Jobs(), "backup")
}

func TestWire_InvalidBackupSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup.Bucket = "backups"
	cfg.Backup.AccessKeyID = "id"
	cfg.Backup.SecretAccessKey = "secret"
	cfg.Backup.Schedule = "whenever"

	_, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "failed to register job backup")
}

func TestContainer_CloseEmpty(t *testing.T) {
	assert.NoError(t, (&Container{}).Close())
}
