package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

var (
	ErrAdminExists     = errors.New("admin already exists")
	ErrRefreshNotFound = errors.New("refresh token not in allow-list")
)

// IsDuplicate reports whether err is a unique-constraint violation. Not
// every driver translates to gorm.ErrDuplicatedKey, so the raw message is
// checked as well (postgres and sqlite wordings).
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key")
}
