package Models

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

const (
	NotificationReportSubmitted = "REPORT_SUBMITTED"
	NotificationReportApproved  = "REPORT_APPROVED"
	NotificationReportRejected  = "REPORT_REJECTED"
)

const (
	RefTypeReport   = "HANDLER_REPORT"
	RefTypeSchedule = "DAILY_SCHEDULE"
)

// Notification is addressed to exactly one user and weak-references the
// triggering entity via RefType/RefID so clients can deep-link. Only the
// read flag is ever mutated after creation.
type Notification struct {
	gorm.Model
	UserID  uint   `json:"user_id" gorm:"index"`
	Type    string `json:"type"`
	RefType string `json:"ref_type"`
	RefID   uint   `json:"ref_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Read    bool   `json:"read" gorm:"default:false"`
}

// SendPush is the optional push delivery hook, wired to Firebase at
// startup. Delivery failures are the hook's problem; the DB row is the
// source of truth.
var SendPush = func(db *gorm.DB, userID uint, title, body string) {}

// NotifyReportSubmitted fans out one notification per supervisor of the
// report's project (project managers scoped to it, plus admins). Errors
// are logged, never propagated: the submission already committed.
func NotifyReportSubmitted(db *gorm.DB, report *HandlerReport, projectID uint) {
	var supervisors []User
	err := db.Where("is_active = ? AND (role = ? OR (role = ? AND project_id = ?))",
		true, RoleAdmin, RoleProjectManager, projectID).Find(&supervisors).Error
	if err != nil {
		log.Printf("Notification fan-out failed for report %d: %v\n", report.ID, err)
		return
	}

	title := "Report submitted"
	body := fmt.Sprintf("Handler report #%d was submitted for review", report.ID)
	for _, supervisor := range supervisors {
		notification := Notification{
			UserID:  supervisor.ID,
			Type:    NotificationReportSubmitted,
			RefType: RefTypeReport,
			RefID:   report.ID,
			Title:   title,
			Body:    body,
		}
		if err := db.Create(&notification).Error; err != nil {
			log.Printf("Failed to create notification for user %d: %v\n", supervisor.ID, err)
			continue
		}
		SendPush(db, supervisor.ID, title, body)
	}
}

// NotifyReportReviewed tells the author the outcome of the review.
func NotifyReportReviewed(db *gorm.DB, report *HandlerReport) {
	notifType := NotificationReportApproved
	title := "Report approved"
	if report.Status == ReportRejected {
		notifType = NotificationReportRejected
		title = "Report rejected"
	}

	notification := Notification{
		UserID:  report.HandlerID,
		Type:    notifType,
		RefType: RefTypeReport,
		RefID:   report.ID,
		Title:   title,
		Body:    fmt.Sprintf("Your report #%d was reviewed: %s", report.ID, report.Status),
	}
	if err := db.Create(&notification).Error; err != nil {
		log.Printf("Failed to create review notification for user %d: %v\n", report.HandlerID, err)
		return
	}
	SendPush(db, report.HandlerID, title, notification.Body)
}

// MarkNotificationRead is idempotent and scoped to the caller's own
// notifications; someone else's ID looks like it does not exist.
func MarkNotificationRead(db *gorm.DB, userID, notificationID uint) error {
	var notification Notification
	if err := db.Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		return ErrNotFound
	}
	if notification.Read {
		return nil
	}
	return db.Model(&notification).Update("read", true).Error
}

func MarkAllNotificationsRead(db *gorm.DB, userID uint) error {
	return db.Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

func UnreadNotificationCount(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// CleanupNotifications deletes read notifications older than the
// retention window. Run by the maintenance cron.
func CleanupNotifications(db *gorm.DB, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := db.Unscoped().
		Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&Notification{})
	return result.RowsAffected, result.Error
}
