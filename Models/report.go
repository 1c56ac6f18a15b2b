package Models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReportDraft     = "DRAFT"
	ReportSubmitted = "SUBMITTED"
	ReportApproved  = "APPROVED"
	ReportRejected  = "REJECTED"
)

// HandlerReport is the daily report a handler files against exactly one
// schedule item. The unique index on ScheduleItemID serializes racing
// creates: the second insert fails as a conflict instead of duplicating.
type HandlerReport struct {
	gorm.Model
	ScheduleItemID uint       `json:"schedule_item_id" gorm:"uniqueIndex"`
	HandlerID      uint       `json:"handler_id" gorm:"index"`
	Status         string     `json:"status" gorm:"default:DRAFT"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	Late           bool       `json:"late"`
	ReviewerID     *uint      `json:"reviewer_id"`
	ReviewNotes    string     `json:"review_notes"`
	ReviewedAt     *time.Time `json:"reviewed_at"`

	// Each sub-section is 0..1 per report, stored as a JSON column.
	HealthCheck         datatypes.JSON `json:"health_check"`
	TrainingLog         datatypes.JSON `json:"training_log"`
	CareLog             datatypes.JSON `json:"care_log"`
	BehaviorObservation datatypes.JSON `json:"behavior_observation"`
	IncidentLog         datatypes.JSON `json:"incident_log"`
}

// ReportSections is the writable subset shared by create and update.
type ReportSections struct {
	HealthCheck         datatypes.JSON `json:"health_check"`
	TrainingLog         datatypes.JSON `json:"training_log"`
	CareLog             datatypes.JSON `json:"care_log"`
	BehaviorObservation datatypes.JSON `json:"behavior_observation"`
	IncidentLog         datatypes.JSON `json:"incident_log"`
}

func sectionSet(value datatypes.JSON) bool {
	return len(value) > 0 && string(value) != "null"
}

// SectionCount returns how many sub-sections carry content.
func (r *HandlerReport) SectionCount() int {
	count := 0
	for _, section := range []datatypes.JSON{
		r.HealthCheck, r.TrainingLog, r.CareLog, r.BehaviorObservation, r.IncidentLog,
	} {
		if sectionSet(section) {
			count++
		}
	}
	return count
}

func (r *HandlerReport) applySections(sections ReportSections) {
	if sectionSet(sections.HealthCheck) {
		r.HealthCheck = sections.HealthCheck
	}
	if sectionSet(sections.TrainingLog) {
		r.TrainingLog = sections.TrainingLog
	}
	if sectionSet(sections.CareLog) {
		r.CareLog = sections.CareLog
	}
	if sectionSet(sections.BehaviorObservation) {
		r.BehaviorObservation = sections.BehaviorObservation
	}
	if sectionSet(sections.IncidentLog) {
		r.IncidentLog = sections.IncidentLog
	}
}

// CreateReport opens a DRAFT against a schedule item. The lock state of
// the parent schedule is re-checked inside the insert transaction; after
// a lock, authors keep a grace window to start their report.
func CreateReport(db *gorm.DB, scheduleItemID, handlerID uint, sections ReportSections, now time.Time, graceMinutes int) (*HandlerReport, error) {
	var report HandlerReport
	err := db.Transaction(func(tx *gorm.DB) error {
		var item ScheduleItem
		if err := tx.First(&item, scheduleItemID).Error; err != nil {
			return ErrNotFound
		}
		var schedule DailySchedule
		if err := tx.First(&schedule, item.ScheduleID).Error; err != nil {
			return ErrNotFound
		}
		if ReportWindowClosed(&schedule, now, graceMinutes) {
			return ErrInvalidState
		}

		report = HandlerReport{
			ScheduleItemID: scheduleItemID,
			HandlerID:      handlerID,
			Status:         ReportDraft,
		}
		report.applySections(sections)
		if err := tx.Create(&report).Error; err != nil {
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
	return &report, nil
}

// UpdateReport rewrites sub-sections while the report is still a DRAFT.
func UpdateReport(db *gorm.DB, reportID uint, sections ReportSections, now time.Time, graceMinutes int) (*HandlerReport, error) {
	var report HandlerReport
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, reportID).Error; err != nil {
			return ErrNotFound
		}
		if report.Status != ReportDraft {
			return ErrInvalidState
		}

		var item ScheduleItem
		if err := tx.First(&item, report.ScheduleItemID).Error; err != nil {
			return ErrNotFound
		}
		var schedule DailySchedule
		if err := tx.First(&schedule, item.ScheduleID).Error; err != nil {
			return ErrNotFound
		}
		if ReportWindowClosed(&schedule, now, graceMinutes) {
			return ErrInvalidState
		}

		report.applySections(sections)
		return tx.Save(&report).Error
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// SubmitReport moves DRAFT -> SUBMITTED. A report past the end-of-day
// grace cutoff is flagged late but still accepted; lateness never drops a
// record. The supervisor fan-out happens after the commit and is
// best-effort: reports are authoritative, notifications are not.
func SubmitReport(db *gorm.DB, reportID uint, now time.Time, graceMinutes int) (*HandlerReport, error) {
	var report HandlerReport
	var projectID uint
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, reportID).Error; err != nil {
			return ErrNotFound
		}
		if report.Status != ReportDraft {
			return ErrInvalidState
		}
		if report.SectionCount() == 0 {
			return ErrValidation
		}

		var item ScheduleItem
		if err := tx.First(&item, report.ScheduleItemID).Error; err != nil {
			return ErrNotFound
		}
		var schedule DailySchedule
		if err := tx.First(&schedule, item.ScheduleID).Error; err != nil {
			return ErrNotFound
		}
		projectID = schedule.ProjectID

		report.Status = ReportSubmitted
		report.SubmittedAt = &now
		report.Late = now.After(submissionCutoff(schedule.Date, graceMinutes))
		return tx.Save(&report).Error
	})
	if err != nil {
		return nil, err
	}

	NotifyReportSubmitted(db, &report, projectID)
	return &report, nil
}

// submissionCutoff is end-of-day of the schedule date plus the grace
// allowance.
func submissionCutoff(date string, graceMinutes int) time.Time {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Now().Add(24 * time.Hour)
	}
	return day.Add(24*time.Hour + time.Duration(graceMinutes)*time.Minute)
}

// ApproveReport moves SUBMITTED -> APPROVED. Notes are optional.
func ApproveReport(db *gorm.DB, reportID, reviewerID uint, notes string) (*HandlerReport, error) {
	return reviewReport(db, reportID, reviewerID, ReportApproved, notes)
}

// RejectReport moves SUBMITTED -> REJECTED. Notes are required so the
// author knows what to fix.
func RejectReport(db *gorm.DB, reportID, reviewerID uint, notes string) (*HandlerReport, error) {
	if notes == "" {
		return nil, ErrValidation
	}
	return reviewReport(db, reportID, reviewerID, ReportRejected, notes)
}

func reviewReport(db *gorm.DB, reportID, reviewerID uint, outcome, notes string) (*HandlerReport, error) {
	var report HandlerReport
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, reportID).Error; err != nil {
			return ErrNotFound
		}
		if report.Status != ReportSubmitted {
			return ErrInvalidState
		}
		now := time.Now()
		report.Status = outcome
		report.ReviewerID = &reviewerID
		report.ReviewNotes = notes
		report.ReviewedAt = &now
		return tx.Save(&report).Error
	})
	if err != nil {
		return nil, err
	}

	NotifyReportReviewed(db, &report)
	return &report, nil
}

// ReopenReport moves REJECTED -> DRAFT so the author can resubmit. The
// review notes stay on the record; the reviewer outcome is cleared.
func ReopenReport(db *gorm.DB, reportID uint) (*HandlerReport, error) {
	var report HandlerReport
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, reportID).Error; err != nil {
			return ErrNotFound
		}
		if report.Status != ReportRejected {
			return ErrInvalidState
		}
		report.Status = ReportDraft
		report.SubmittedAt = nil
		report.Late = false
		report.ReviewerID = nil
		report.ReviewedAt = nil
		return tx.Save(&report).Error
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}
