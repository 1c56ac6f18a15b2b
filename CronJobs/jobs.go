package CronJobs

import (
	"fmt"
	"log"
	"time"

	"K9Ops/Config"
	"K9Ops/Models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// MaintenanceJobs bundles the two scheduled housekeeping tasks: the
// nightly schedule lock sweep and the notification retention cleanup.
type MaintenanceJobs struct {
	db            *gorm.DB
	cronScheduler *cron.Cron
	lockJobID     cron.EntryID
	cleanupJobID  cron.EntryID
}

// NewMaintenanceJobs creates the scheduler. SkipIfStillRunning keeps a
// slow sweep from overlapping with the next tick.
func NewMaintenanceJobs(db *gorm.DB) *MaintenanceJobs {
	return &MaintenanceJobs{
		db: db,
		cronScheduler: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// Start registers and launches both jobs.
func (m *MaintenanceJobs) Start() error {
	var err error
	m.lockJobID, err = m.cronScheduler.AddFunc(Config.ScheduleLockCron, m.runLockSweep)
	if err != nil {
		return fmt.Errorf("error scheduling lock sweep: %w", err)
	}

	m.cleanupJobID, err = m.cronScheduler.AddFunc(Config.RetentionCleanupCron, m.runRetentionCleanup)
	if err != nil {
		return fmt.Errorf("error scheduling retention cleanup: %w", err)
	}

	m.cronScheduler.Start()
	log.Println("Maintenance scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (m *MaintenanceJobs) Stop() {
	ctx := m.cronScheduler.Stop()
	<-ctx.Done()
	log.Println("Maintenance scheduler stopped")
}

// runLockSweep locks every still-open schedule dated before today. A
// schedule locked manually in the meantime is simply skipped by the
// query, so the sweep is safe to rerun.
func (m *MaintenanceJobs) runLockSweep() {
	today := time.Now().Format(Models.DateLayout)
	locked, err := Models.LockPastSchedules(m.db, today)
	if err != nil {
		log.Printf("Schedule lock sweep failed: %v\n", err)
		return
	}
	if locked > 0 {
		log.Printf("Schedule lock sweep locked %d schedule(s)\n", locked)
	}
}

func (m *MaintenanceJobs) runRetentionCleanup() {
	deleted, err := Models.CleanupNotifications(m.db, Config.RetentionDays)
	if err != nil {
		log.Printf("Notification cleanup failed: %v\n", err)
		return
	}
	if deleted > 0 {
		log.Printf("Notification cleanup removed %d notification(s)\n", deleted)
	}
}
