// Package di provides dependency injection type definitions.
//
// The Container holds every long-lived component of the server. It is the
// single source of truth for service instances and is handed to the HTTP
// server and the scheduler.
package di

import (
	"github.com/aristath/checkup/internal/clients/ocr"
	"github.com/aristath/checkup/internal/database"
	"github.com/aristath/checkup/internal/modules/checkup"
	"github.com/aristath/checkup/internal/modules/payments"
	"github.com/aristath/checkup/internal/reliability"
	"github.com/aristath/checkup/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	CheckupsDB *database.DB

	// Repositories
	CheckupRepo *checkup.Repository

	// Clients
	OCRClient *ocr.Client // nil when OCR_SERVICE_URL is unset

	// Services
	CheckupService *checkup.Service
	CouponGate     *payments.CouponGate
	BackupService  *reliability.BackupService // nil when backups are disabled

	// Background jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds the registered jobs so they can be triggered manually
type JobInstances struct {
	DailyMaintenance   scheduler.Job
	WeeklyVacuum       scheduler.Job
	PurgeStalePreviews scheduler.Job
	Backup             scheduler.Job // nil when backups are disabled
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.CheckupsDB == nil {
		return nil
	}
	return c.CheckupsDB.Close()
}
