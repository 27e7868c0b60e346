package model

import (
	"github.com/google/uuid"
)

// Organization is a tenant of the control plane. Every organization owns
// exactly one physical database, named DatabaseName, created when the
// organization is created.
type Organization struct {
	AutoTimeModel

	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Name         string             `gorm:"type:varchar(255);not null"`
	Slug         string             `gorm:"type:varchar(255);not null;unique"`
	DatabaseName string             `gorm:"type:varchar(63);not null;unique"`
	Status       OrganizationStatus `gorm:"type:varchar(50);not null"`
}

// TableName returns the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) SetID(id uuid.UUID) {
	o.ID = id
}
