package Models

import (
	"log"

	"K9Ops/Config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	var err error
	if Config.DatabaseDSN != "" {
		DB, err = gorm.Open(mysql.Open(Config.DatabaseDSN), &gorm.Config{TranslateError: true})
	} else {
		DB, err = gorm.Open(sqlite.Open(Config.SQLitePath), &gorm.Config{TranslateError: true})
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	seedAdmin(DB)
}

// Migrate runs AutoMigrate in dependency order.
func Migrate(db *gorm.DB) error {
	// 1. Base records with no foreign keys
	if err := db.AutoMigrate(
		&Project{},
		&User{},
		&RefreshToken{},
		&DeviceToken{},
	); err != nil {
		return err
	}

	// 2. Records that reference projects and users
	if err := db.AutoMigrate(
		&Dog{},
		&DailySchedule{},
		&ScheduleItem{},
	); err != nil {
		return err
	}

	// 3. Records that reference schedule items
	return db.AutoMigrate(
		&HandlerReport{},
		&Notification{},
		&AuditLog{},
	)
}

// seedAdmin provisions the bootstrap admin account when configured and
// missing. Existing accounts are never touched.
func seedAdmin(db *gorm.DB) {
	if Config.AdminUsername == "" || Config.AdminPassword == "" {
		return
	}

	var count int64
	db.Model(&User{}).Where("username = ?", Config.AdminUsername).Count(&count)
	if count > 0 {
		return
	}

	admin := User{
		Name:     "Administrator",
		Username: Config.AdminUsername,
		Role:     RoleAdmin,
		IsActive: true,
	}
	if err := admin.SetPassword(Config.AdminPassword); err != nil {
		log.Printf("Failed to hash admin password: %v\n", err)
		return
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Failed to seed admin user: %v\n", err)
		return
	}
	log.Println("Seeded bootstrap admin user")
}
