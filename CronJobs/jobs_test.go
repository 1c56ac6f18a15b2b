package CronJobs

import (
	"testing"

	"K9Ops/Config"
	"K9Ops/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMaintenanceJobsStartStop(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:cronjobs?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	Config.ScheduleLockCron = "0 5 0 * * *"
	Config.RetentionCleanupCron = "0 30 3 * * *"
	Config.RetentionDays = 90

	jobs := NewMaintenanceJobs(db)
	require.NoError(t, jobs.Start())
	assert.Len(t, jobs.cronScheduler.Entries(), 2)
	jobs.Stop()
}

func TestLockSweepLocksPastDays(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:cronsweep?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	project := Models.Project{Name: "Project P1", Code: "P1", IsActive: true}
	require.NoError(t, db.Create(&project).Error)

	past, err := Models.CreateSchedule(db, project.ID, "2020-01-01", "")
	require.NoError(t, err)

	jobs := NewMaintenanceJobs(db)
	jobs.runLockSweep()

	var fresh Models.DailySchedule
	require.NoError(t, db.First(&fresh, past.ID).Error)
	assert.Equal(t, Models.ScheduleLocked, fresh.Status)

	// A second sweep is a no-op.
	jobs.runLockSweep()
	var again Models.DailySchedule
	require.NoError(t, db.First(&again, past.ID).Error)
	require.NotNil(t, again.LockedAt)
	assert.True(t, again.LockedAt.Equal(*fresh.LockedAt))
}
