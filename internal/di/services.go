package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aristath/checkup/internal/clients/ocr"
	"github.com/aristath/checkup/internal/config"
	"github.com/aristath/checkup/internal/database"
	"github.com/aristath/checkup/internal/modules/checkup"
	"github.com/aristath/checkup/internal/modules/payments"
	"github.com/aristath/checkup/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates the repository, clients and services
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.CheckupRepo = checkup.NewRepository(container.CheckupsDB.Conn(), log)

	// A nil interface, not a typed nil, keeps image upload disabled in the service
	var extractor checkup.Extractor
	if cfg.OCR.Enabled() {
		container.OCRClient = ocr.NewClient(ocr.Config{
			BaseURL:       cfg.OCR.BaseURL,
			APIKey:        cfg.OCR.APIKey,
			RatePerMinute: cfg.OCR.RatePerMinute,
		}, log)
		extractor = container.OCRClient
	} else {
		log.Warn().Msg("OCR_SERVICE_URL not set, image upload disabled")
	}

	container.CheckupService = checkup.NewService(container.CheckupRepo, extractor, log)

	if len(cfg.Coupons) == 0 {
		log.Warn().Msg("CHECKUP_COUPONS not set, no coupon will be accepted")
	}
	container.CouponGate = payments.NewCouponGate(container.CheckupRepo, cfg.Coupons, log)

	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Client(ctx, reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Region:          cfg.Backup.Region,
			Endpoint:        cfg.Backup.Endpoint,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			store,
			[]*database.DB{container.CheckupsDB},
			filepath.Join(cfg.DataDir, "backup-staging"),
			log,
		)
	}

	return nil
}
