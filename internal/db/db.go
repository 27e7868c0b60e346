package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo/violations"
)

const DBLogDomain = "db"

// StartDB starts the control-store connection, runs migrations and seeds the
// built-in system roles.
func StartDB(
	ctx context.Context,
	cfg *config.Config,
) (*gorm.DB, error) {
	log.Info(ctx, "Starting control store connection")

	dbCon, err := StartDBConnection(ctx, cfg.Database, cfg.DatabaseReplicas)
	if err != nil {
		return nil, oops.In(DBLogDomain).Wrapf(err, "failed to initialize DB Connection")
	}

	migrator, err := NewMigrator(cfg)
	if err != nil {
		return nil, oops.In(DBLogDomain).Wrapf(err, "failed to create migrator")
	}

	err = migrator.MigrateToLatest(ctx)
	if err != nil {
		return nil, oops.In(DBLogDomain).Wrapf(err, "failed to migrate control store")
	}

	err = SeedSystemRoles(ctx, dbCon)
	if err != nil {
		return nil, oops.In(DBLogDomain).Wrapf(err, "failed to seed system roles")
	}

	return dbCon, nil
}

type systemRoleSeed struct {
	Slug        model.SystemRole
	Name        string
	Description string
	IsDefault   bool
	Permissions []string
}

type permissionSeed struct {
	Code        string
	Name        string
	Description string
}

// Permission codes granted through the built-in roles.
const (
	PermOrganizationManage  = "organization.manage"
	PermOrganizationDelete  = "organization.delete"
	PermMembersView         = "members.view"
	PermMembersInvite       = "members.invite"
	PermMembersManage       = "members.manage"
	PermRolesManage         = "roles.manage"
	PermSubscriptionsManage = "subscriptions.manage"
	PermApplicationsView    = "applications.view"
)

var permissionSeeds = []permissionSeed{
	{PermOrganizationManage, "Manage organization", "Change organization settings"},
	{PermOrganizationDelete, "Delete organization", "Remove the organization and its data"},
	{PermMembersView, "View members", "List organization members"},
	{PermMembersInvite, "Invite members", "Add users to the organization"},
	{PermMembersManage, "Manage members", "Change and remove memberships"},
	{PermRolesManage, "Manage roles", "Create and edit custom roles"},
	{PermSubscriptionsManage, "Manage subscriptions", "Subscribe to and cancel applications"},
	{PermApplicationsView, "View applications", "Browse the application catalog"},
}

var systemRoleSeeds = []systemRoleSeed{
	{
		Slug:        model.SystemRoleOwner,
		Name:        "Owner",
		Description: "Full control of the organization",
		Permissions: []string{
			PermOrganizationManage, PermOrganizationDelete,
			PermMembersView, PermMembersInvite, PermMembersManage,
			PermRolesManage, PermSubscriptionsManage, PermApplicationsView,
		},
	},
	{
		Slug:        model.SystemRoleAdmin,
		Name:        "Administrator",
		Description: "Organization administration without deletion",
		Permissions: []string{
			PermOrganizationManage,
			PermMembersView, PermMembersInvite, PermMembersManage,
			PermRolesManage, PermSubscriptionsManage, PermApplicationsView,
		},
	},
	{
		Slug:        model.SystemRoleMember,
		Name:        "Member",
		Description: "Regular organization member",
		IsDefault:   true,
		Permissions: []string{PermMembersView, PermApplicationsView},
	},
	{
		Slug:        model.SystemRoleViewer,
		Name:        "Viewer",
		Description: "Read-only access",
		Permissions: []string{PermMembersView},
	},
}

// SeedSystemRoles makes sure the built-in roles, their permissions and the
// role-permission joins exist. Reruns are no-ops.
func SeedSystemRoles(ctx context.Context, db *gorm.DB) error {
	permissions := map[string]uuid.UUID{}

	for _, seed := range permissionSeeds {
		id, err := ensurePermission(ctx, db, seed)
		if err != nil {
			return err
		}

		permissions[seed.Code] = id
	}

	for _, seed := range systemRoleSeeds {
		roleID, err := ensureSystemRole(ctx, db, seed)
		if err != nil {
			return err
		}

		for _, code := range seed.Permissions {
			err = ensureRolePermission(ctx, db, roleID, permissions[code])
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func ensurePermission(ctx context.Context, db *gorm.DB, seed permissionSeed) (uuid.UUID, error) {
	var existing model.Permission

	err := db.WithContext(ctx).Where("code = ?", seed.Code).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	permission := model.Permission{
		ID:          uuid.New(),
		Code:        seed.Code,
		Name:        seed.Name,
		Description: seed.Description,
	}

	err = db.WithContext(ctx).Create(&permission).Error
	if err != nil {
		return uuid.Nil, err
	}

	return permission.ID, nil
}

func ensureSystemRole(ctx context.Context, db *gorm.DB, seed systemRoleSeed) (uuid.UUID, error) {
	var existing model.Role

	err := db.WithContext(ctx).
		Where("slug = ? AND is_system = ?", seed.Slug.String(), true).
		First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	role := model.Role{
		ID:          uuid.New(),
		Name:        seed.Name,
		Slug:        seed.Slug.String(),
		Description: seed.Description,
		IsSystem:    true,
		IsDefault:   seed.IsDefault,
	}

	err = db.WithContext(ctx).Create(&role).Error
	if err != nil {
		return uuid.Nil, err
	}

	return role.ID, nil
}

func ensureRolePermission(ctx context.Context, db *gorm.DB, roleID, permissionID uuid.UUID) error {
	join := model.RolePermission{RoleID: roleID, PermissionID: permissionID}

	err := db.WithContext(ctx).Create(&join).Error
	if err != nil &&
		!errors.Is(err, gorm.ErrDuplicatedKey) &&
		!violations.IsUniqueConstraint(err) {
		return err
	}

	return nil
}
