package Models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DogActive  = "ACTIVE"
	DogRetired = "RETIRED"
)

type Dog struct {
	gorm.Model
	Name      string     `json:"name"`
	Breed     string     `json:"breed"`
	ServiceNo string     `json:"service_no" gorm:"uniqueIndex:idx_dog_project_service"`
	ProjectID uint       `json:"project_id" gorm:"uniqueIndex:idx_dog_project_service"`
	Status    string     `json:"status" gorm:"default:ACTIVE"`
	BirthDate *time.Time `json:"birth_date"`
	Notes     string     `json:"notes"`
}
