package Config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Runtime configuration, loaded once at startup from .env / the environment.
var (
	Port                 string
	DatabaseDSN          string
	SQLitePath           string
	JWTSecret            string
	AccessTokenMinutes   int
	RefreshTokenHours    int
	ReportGraceMinutes   int
	ScheduleLockCron     string
	RetentionCleanupCron string
	RetentionDays        int
	ResubmissionEnabled  bool
	FirebaseCredFile     string
	AdminUsername        string
	AdminPassword        string
)

func Load() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	Port = getEnv("PORT", "3001")
	DatabaseDSN = getEnv("DB_DSN", "")
	SQLitePath = getEnv("SQLITE_PATH", "database.db")
	JWTSecret = getEnv("JWT_SECRET", "secret")
	AccessTokenMinutes = getEnvInt("ACCESS_TOKEN_MINUTES", 15)
	RefreshTokenHours = getEnvInt("REFRESH_TOKEN_HOURS", 168)
	ReportGraceMinutes = getEnvInt("HANDLER_REPORT_GRACE_MINUTES", 30)
	ScheduleLockCron = getEnv("SCHEDULE_LOCK_CRON", "0 5 0 * * *")
	RetentionCleanupCron = getEnv("NOTIFICATION_CLEANUP_CRON", "0 30 3 * * *")
	RetentionDays = getEnvInt("NOTIFICATION_RETENTION_DAYS", 90)
	ResubmissionEnabled = getEnvBool("REPORT_RESUBMISSION_ENABLED", true)
	FirebaseCredFile = getEnv("FIREBASE_CREDENTIALS_FILE", "")
	AdminUsername = getEnv("ADMIN_USERNAME", "")
	AdminPassword = getEnv("ADMIN_PASSWORD", "")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d\n", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %v\n", key, value, fallback)
		return fallback
	}
	return parsed
}
