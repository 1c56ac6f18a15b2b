package Models

import (
	"log"

	"gorm.io/gorm"
)

// AuditLog records every state-changing operation the policy allowed:
// who, what, and the status before and after. Denied attempts are not
// audited.
type AuditLog struct {
	gorm.Model
	UserID       uint   `json:"user_id" gorm:"index"`
	Action       string `json:"action"`
	EntityType   string `json:"entity_type"`
	EntityID     uint   `json:"entity_id"`
	BeforeStatus string `json:"before_status"`
	AfterStatus  string `json:"after_status"`
}

// WriteAudit is best-effort; a failed audit write is logged but never
// fails the operation it describes.
func WriteAudit(db *gorm.DB, userID uint, action, entityType string, entityID uint, before, after string) {
	entry := AuditLog{
		UserID:       userID,
		Action:       action,
		EntityType:   entityType,
		EntityID:     entityID,
		BeforeStatus: before,
		AfterStatus:  after,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("Failed to write audit entry (%s %s %d): %v\n", action, entityType, entityID, err)
	}
}
