package Models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleAdmin          = "ADMIN"
	RoleProjectManager = "PROJECT_MANAGER"
	RoleHandler        = "HANDLER"
)

// User is the single identity record. The workforce fields (badge, rank,
// hire date) are an optional facet of the same record rather than a
// separate employee table.
type User struct {
	gorm.Model
	Name       string     `json:"name"`
	Username   string     `json:"username" gorm:"uniqueIndex"`
	Password   []byte     `json:"-"`
	Role       string     `json:"role"`
	ProjectID  *uint      `json:"project_id"`
	MFASecret  string     `json:"-"`
	MFAEnabled bool       `json:"mfa_enabled"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`
	BadgeNo    string     `json:"badge_no"`
	Rank       string     `json:"rank"`
	HiredAt    *time.Time `json:"hired_at"`
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(plain)) == nil
}

// RefreshToken tracks issued refresh-token IDs so the exchange endpoint can
// reject revoked or already-rotated tokens.
type RefreshToken struct {
	gorm.Model
	UserID    uint      `json:"user_id" gorm:"index"`
	TokenID   string    `json:"token_id" gorm:"uniqueIndex"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked" gorm:"default:false"`
}

// DeviceToken holds an FCM registration token for push delivery.
type DeviceToken struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"index"`
	Value  string `json:"value"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleProjectManager, RoleHandler:
		return true
	}
	return false
}
