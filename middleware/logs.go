package middleware

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"K9Ops/Models"

	"github.com/gofiber/fiber/v2"
)

// LogData is one request log line, written as JSON to logs/requests.log.
type LogData struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Latency   time.Duration `json:"latency"`
	IP        string        `json:"ip"`
	UserAgent string        `json:"user_agent"`
	Error     string        `json:"error,omitempty"`
	UserID    uint          `json:"user_id,omitempty"`
	Username  string        `json:"username,omitempty"`
}

var skipPaths = map[string]bool{
	"/health": true,
}

// RequestLogger logs every request with user attribution when the auth
// middleware has run.
func RequestLogger() fiber.Handler {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
	}

	return func(c *fiber.Ctx) error {
		if skipPaths[c.Path()] {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		data := LogData{
			Timestamp: start,
			Method:    c.Method(),
			Path:      c.Path(),
			Status:    c.Response().StatusCode(),
			Latency:   time.Since(start),
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
		}
		if user, ok := c.Locals("user").(Models.User); ok {
			data.UserID = user.ID
			data.Username = user.Username
		}
		if err != nil {
			data.Error = err.Error()
		}

		line, _ := json.Marshal(data)
		log.Println(string(line))
		logToFile("logs/requests.log", string(line))

		return err
	}
}

func logToFile(filePath, message string) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if _, err := file.WriteString(message + "\n"); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}
