package Models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	ScheduleOpen   = "OPEN"
	ScheduleLocked = "LOCKED"
)

const (
	ItemAssigned = "ASSIGNED"
	ItemAbsent   = "ABSENT"
	ItemReplaced = "REPLACED"
)

const DateLayout = "2006-01-02"

// DailySchedule is one day's roster for a project. OPEN -> LOCKED is the
// only transition and it is one-way.
type DailySchedule struct {
	gorm.Model
	ProjectID uint           `json:"project_id" gorm:"uniqueIndex:idx_schedule_project_date"`
	Date      string         `json:"date" gorm:"type:varchar(10);uniqueIndex:idx_schedule_project_date"`
	Status    string         `json:"status" gorm:"default:OPEN"`
	LockedAt  *time.Time     `json:"locked_at"`
	Notes     string         `json:"notes"`
	Items     []ScheduleItem `json:"items" gorm:"foreignKey:ScheduleID"`
}

// ScheduleItem pairs one handler with one dog for the day. The composite
// unique indexes serialize racing creates for the same handler or dog.
type ScheduleItem struct {
	gorm.Model
	ScheduleID           uint   `json:"schedule_id" gorm:"uniqueIndex:idx_item_schedule_handler;uniqueIndex:idx_item_schedule_dog"`
	HandlerID            uint   `json:"handler_id" gorm:"uniqueIndex:idx_item_schedule_handler"`
	DogID                uint   `json:"dog_id" gorm:"uniqueIndex:idx_item_schedule_dog"`
	Status               string `json:"status" gorm:"default:ASSIGNED"`
	ReplacementHandlerID *uint  `json:"replacement_handler_id"`
	Reason               string `json:"reason"`
}

func CreateSchedule(db *gorm.DB, projectID uint, date, notes string) (*DailySchedule, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, ErrValidation
	}

	var project Project
	if err := db.First(&project, projectID).Error; err != nil {
		return nil, ErrNotFound
	}

	schedule := DailySchedule{
		ProjectID: projectID,
		Date:      date,
		Status:    ScheduleOpen,
		Notes:     notes,
	}
	if err := db.Create(&schedule).Error; err != nil {
		if IsDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &schedule, nil
}

// AddScheduleItem assigns a handler/dog pair. The parent schedule's lock
// state is re-read inside the same transaction that inserts the item.
func AddScheduleItem(db *gorm.DB, scheduleID, handlerID, dogID uint) (*ScheduleItem, error) {
	var item ScheduleItem
	err := db.Transaction(func(tx *gorm.DB) error {
		var schedule DailySchedule
		if err := tx.First(&schedule, scheduleID).Error; err != nil {
			return ErrNotFound
		}
		if schedule.Status == ScheduleLocked {
			return ErrInvalidState
		}

		var handler User
		if err := tx.Where("id = ? AND role = ? AND is_active = ?", handlerID, RoleHandler, true).
			First(&handler).Error; err != nil {
			return ErrValidation
		}
		var dog Dog
		if err := tx.Where("id = ? AND project_id = ?", dogID, schedule.ProjectID).
			First(&dog).Error; err != nil {
			return ErrValidation
		}

		item = ScheduleItem{
			ScheduleID: scheduleID,
			HandlerID:  handlerID,
			DogID:      dogID,
			Status:     ItemAssigned,
		}
		if err := tx.Create(&item).Error; err != nil {
			if IsDuplicateKey(err) {
				return ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateScheduleItem moves an item from ASSIGNED to ABSENT or REPLACED.
// REPLACED requires a replacement handler and a non-empty reason.
func UpdateScheduleItem(db *gorm.DB, itemID uint, status string, replacementID *uint, reason string) (*ScheduleItem, error) {
	var item ScheduleItem
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			return ErrNotFound
		}

		var schedule DailySchedule
		if err := tx.First(&schedule, item.ScheduleID).Error; err != nil {
			return ErrNotFound
		}
		if schedule.Status == ScheduleLocked {
			return ErrInvalidState
		}

		if item.Status != ItemAssigned {
			return ErrInvalidState
		}
		switch status {
		case ItemAbsent:
			item.Status = ItemAbsent
			item.Reason = reason
		case ItemReplaced:
			if replacementID == nil || reason == "" {
				return ErrValidation
			}
			var replacement User
			if err := tx.Where("id = ? AND role = ? AND is_active = ?", *replacementID, RoleHandler, true).
				First(&replacement).Error; err != nil {
				return ErrValidation
			}
			item.Status = ItemReplaced
			item.ReplacementHandlerID = replacementID
			item.Reason = reason
		default:
			return ErrValidation
		}
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// LockSchedule freezes the roster. Calling it on an already-locked
// schedule is a no-op, so the end-of-day sweep can retry safely.
func LockSchedule(db *gorm.DB, scheduleID uint) (*DailySchedule, error) {
	var schedule DailySchedule
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&schedule, scheduleID).Error; err != nil {
			return ErrNotFound
		}
		if schedule.Status == ScheduleLocked {
			return nil
		}
		now := time.Now()
		schedule.Status = ScheduleLocked
		schedule.LockedAt = &now
		return tx.Save(&schedule).Error
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// LockPastSchedules locks every OPEN schedule dated before today. Dates
// are YYYY-MM-DD strings, so the comparison is a plain string compare.
func LockPastSchedules(db *gorm.DB, today string) (int, error) {
	var schedules []DailySchedule
	if err := db.Where("status = ? AND date < ?", ScheduleOpen, today).Find(&schedules).Error; err != nil {
		return 0, err
	}

	locked := 0
	var firstErr error
	for _, schedule := range schedules {
		if _, err := LockSchedule(db, schedule.ID); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		locked++
	}
	return locked, firstErr
}

// ReportWindowClosed reports whether report writes against this schedule
// are frozen. Locking freezes assignments immediately, but authors keep a
// grace window after LockedAt to finish their reports.
func ReportWindowClosed(schedule *DailySchedule, now time.Time, graceMinutes int) bool {
	if schedule.Status != ScheduleLocked || schedule.LockedAt == nil {
		return false
	}
	return now.After(schedule.LockedAt.Add(time.Duration(graceMinutes) * time.Minute))
}

// ScheduleForItem loads the parent schedule of an item, outside any
// transaction, for policy checks in handlers.
func ScheduleForItem(db *gorm.DB, item *ScheduleItem) (*DailySchedule, error) {
	var schedule DailySchedule
	if err := db.First(&schedule, item.ScheduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}
