package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrConflictingRoleColumns = errors.New("membership carries both a built-in and a custom role")

// RoleKind discriminates the two stored role representations.
type RoleKind int

const (
	RoleKindUnresolved RoleKind = iota
	RoleKindBuiltIn
	RoleKindCustom
)

// ResolvedRole is the role assignment of a membership: either a built-in
// system role identified by its slug, or a custom organization role
// identified by id. The zero value is unresolved; both-at-once is not
// representable. It is serialized to the two nullable membership columns
// only at the persistence boundary.
type ResolvedRole struct {
	kind   RoleKind
	slug   SystemRole
	roleID uuid.UUID
}

// BuiltInRole returns the resolved representation of a system role.
func BuiltInRole(slug SystemRole) (ResolvedRole, error) {
	err := slug.Validate()
	if err != nil {
		return ResolvedRole{}, err
	}

	return ResolvedRole{kind: RoleKindBuiltIn, slug: slug}, nil
}

// CustomRole returns the resolved representation of an organization role.
func CustomRole(roleID uuid.UUID) ResolvedRole {
	return ResolvedRole{kind: RoleKindCustom, roleID: roleID}
}

func (r ResolvedRole) Kind() RoleKind {
	return r.kind
}

// BuiltIn returns the system role slug when the assignment is built-in.
func (r ResolvedRole) BuiltIn() (SystemRole, bool) {
	return r.slug, r.kind == RoleKindBuiltIn
}

// Custom returns the custom role id when the assignment is organization-owned.
func (r ResolvedRole) Custom() (uuid.UUID, bool) {
	return r.roleID, r.kind == RoleKindCustom
}

func (r ResolvedRole) IsResolved() bool {
	return r.kind != RoleKindUnresolved
}

// Membership relates a user to an organization. Exactly one of Role and
// OrganizationRoleID is set once the membership is resolved; a CHECK
// constraint mirrors the rule in the control store.
type Membership struct {
	ID                 uuid.UUID   `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_org"`
	OrganizationID     uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_org"`
	Role               *SystemRole `gorm:"type:varchar(50)"`
	OrganizationRoleID *uuid.UUID  `gorm:"type:uuid"`
	CreatedAt          time.Time   `gorm:"not null"`
}

// TableName returns the table name for Membership
func (Membership) TableName() string {
	return "memberships"
}

func (m *Membership) SetID(id uuid.UUID) {
	m.ID = id
}

// SetRole serializes a resolved role into the two nullable columns,
// clearing the losing one.
func (m *Membership) SetRole(r ResolvedRole) {
	switch r.kind {
	case RoleKindBuiltIn:
		slug := r.slug
		m.Role = &slug
		m.OrganizationRoleID = nil
	case RoleKindCustom:
		roleID := r.roleID
		m.Role = nil
		m.OrganizationRoleID = &roleID
	case RoleKindUnresolved:
		m.Role = nil
		m.OrganizationRoleID = nil
	}
}

// ResolvedRole reads the stored columns back into the domain representation.
// A row carrying both columns is corrupt and reported as such.
func (m *Membership) ResolvedRole() (ResolvedRole, error) {
	switch {
	case m.Role != nil && m.OrganizationRoleID != nil:
		return ResolvedRole{}, ErrConflictingRoleColumns
	case m.Role != nil:
		return BuiltInRole(*m.Role)
	case m.OrganizationRoleID != nil:
		return CustomRole(*m.OrganizationRoleID), nil
	default:
		return ResolvedRole{}, nil
	}
}

// IsOwner reports whether the membership resolves to the built-in owner role.
func (m *Membership) IsOwner() bool {
	return m.Role != nil && *m.Role == SystemRoleOwner
}
