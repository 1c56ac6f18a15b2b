package Models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Error taxonomy shared by the lifecycle functions. Controllers map these
// to HTTP statuses; nothing below this layer talks HTTP.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrInvalidState = errors.New("operation not allowed in current state")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// IsDuplicateKey reports whether err is a unique-constraint violation from
// either supported driver.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}
