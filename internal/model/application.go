package model

import (
	"github.com/google/uuid"
)

// ApplicationStatus represents the availability of a catalog application.
type ApplicationStatus string

const (
	ApplicationStatusAvailable ApplicationStatus = "available"
	ApplicationStatusRetired   ApplicationStatus = "retired"
)

// Application is one entry of the installable application catalog.
type Application struct {
	AutoTimeModel

	ID       uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Name     string            `gorm:"type:varchar(255);not null"`
	Slug     string            `gorm:"type:varchar(255);not null;unique"`
	Category string            `gorm:"type:varchar(100);not null;default:''"`
	Status   ApplicationStatus `gorm:"type:varchar(50);not null"`
}

// TableName returns the table name for Application
func (Application) TableName() string {
	return "applications"
}
