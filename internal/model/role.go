package model

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidSystemRole = errors.New("system role is not valid")

// SystemRole represents one of the fixed built-in roles available to every
// organization.
type SystemRole string

const (
	SystemRoleOwner  SystemRole = "owner"
	SystemRoleAdmin  SystemRole = "admin"
	SystemRoleMember SystemRole = "member"
	SystemRoleViewer SystemRole = "viewer"
)

var validSystemRoles = map[SystemRole]struct{}{
	SystemRoleOwner:  {},
	SystemRoleAdmin:  {},
	SystemRoleMember: {},
	SystemRoleViewer: {},
}

// Validate validates the given system role.
// Returns an error if the role is invalid.
func (r SystemRole) Validate() error {
	if _, ok := validSystemRoles[r]; !ok {
		return ErrInvalidSystemRole
	}

	return nil
}

func (r SystemRole) String() string {
	return string(r)
}

// Role is a flat permission set. System roles (OrganizationID nil) are shared
// across all tenants; custom roles belong to exactly one organization. The
// slug is unique within its owning organization, globally for system roles.
type Role struct {
	AutoTimeModel

	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name           string     `gorm:"type:varchar(255);not null"`
	Slug           string     `gorm:"type:varchar(255);not null"`
	Description    string     `gorm:"type:text"`
	OrganizationID *uuid.UUID `gorm:"type:uuid"`
	IsSystem       bool       `gorm:"not null;default:false"`
	IsDefault      bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for Role
func (Role) TableName() string {
	return "roles"
}

func (r *Role) SetID(id uuid.UUID) {
	r.ID = id
}

// BelongsTo reports whether the role is a custom role of the given organization.
func (r *Role) BelongsTo(orgID uuid.UUID) bool {
	return r.OrganizationID != nil && *r.OrganizationID == orgID
}
