package model

import (
	"strings"

	"github.com/google/uuid"
)

// User is a row of the shared users table. Account data beyond what the
// membership engine needs (credentials, profile) lives with the excluded
// identity layer.
type User struct {
	AutoTimeModel

	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email       string    `gorm:"type:varchar(255);not null;unique"`
	DisplayName string    `gorm:"type:varchar(255);not null;default:''"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// NormalizeEmail canonicalizes an email address for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
