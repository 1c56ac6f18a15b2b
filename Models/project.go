package Models

import "gorm.io/gorm"

// Project is the tenant boundary. Schedules, dogs and non-admin users all
// hang off a project.
type Project struct {
	gorm.Model
	Name     string `json:"name"`
	Code     string `json:"code" gorm:"uniqueIndex"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}
