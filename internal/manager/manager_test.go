package manager_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/db"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/registry"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo/mock"
)

const testDatabasePrefix = "tenant_"

func databaseTemplate() config.Database {
	return config.Database{
		Name: "saashub",
		Port: "5432",
		Host: commoncfg.SourceRef{Value: "localhost", Source: commoncfg.EmbeddedSourceValue},
		User: commoncfg.SourceRef{Value: "saashub", Source: commoncfg.EmbeddedSourceValue},
		Secret: commoncfg.SourceRef{
			Value:  "secret",
			Source: commoncfg.EmbeddedSourceValue,
		},
	}
}

func gormOverSQLMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqlDB, smock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gdb, smock, sqlDB
}

// newTestRegistry builds a registry whose control handle and tenant handles
// are sqlmock-backed, so tenant database DDL can be scripted per test.
func newTestRegistry(t *testing.T) (*registry.Registry, sqlmock.Sqlmock) {
	t.Helper()

	control, controlMock, _ := gormOverSQLMock(t)

	reg := registry.New(control, databaseTemplate(),
		registry.WithOpenFunc(func(_ context.Context, _ string) (*gorm.DB, error) {
			conn, _, _ := gormOverSQLMock(t)
			return conn, nil
		}))

	return reg, controlMock
}

func newManagers(t *testing.T) (*manager.Manager, *mock.InMemoryRepository, sqlmock.Sqlmock) {
	t.Helper()

	repository := mock.NewInMemoryRepository()
	reg, controlMock := newTestRegistry(t)

	cfg := &config.Config{
		Provisioning: config.Provisioning{DatabasePrefix: testDatabasePrefix},
	}

	return manager.New(repository, reg, cfg, config.DefaultApplicationSeeds), repository, controlMock
}

func createUser(t *testing.T, r repo.Repo, email string) *model.User {
	t.Helper()

	user := &model.User{
		ID:    uuid.New(),
		Email: model.NormalizeEmail(email),
	}
	require.NoError(t, r.Create(t.Context(), user))

	return user
}

func seedSystemRoles(t *testing.T, r repo.Repo) map[model.SystemRole]*model.Role {
	t.Helper()

	ctx := t.Context()

	grants := map[model.SystemRole][]string{
		model.SystemRoleOwner: {
			db.PermOrganizationManage, db.PermOrganizationDelete,
			db.PermMembersView, db.PermMembersInvite, db.PermMembersManage,
			db.PermRolesManage, db.PermSubscriptionsManage, db.PermApplicationsView,
		},
		model.SystemRoleAdmin: {
			db.PermOrganizationManage,
			db.PermMembersView, db.PermMembersInvite, db.PermMembersManage,
			db.PermRolesManage, db.PermSubscriptionsManage, db.PermApplicationsView,
		},
		model.SystemRoleMember: {db.PermMembersView, db.PermApplicationsView},
		model.SystemRoleViewer: {db.PermMembersView},
	}

	permissions := map[string]uuid.UUID{}

	for _, codes := range grants {
		for _, code := range codes {
			if _, ok := permissions[code]; ok {
				continue
			}

			permission := &model.Permission{ID: uuid.New(), Code: code, Name: code}
			require.NoError(t, r.Create(ctx, permission))

			permissions[code] = permission.ID
		}
	}

	roles := map[model.SystemRole]*model.Role{}

	for slug, codes := range grants {
		role := &model.Role{
			ID:        uuid.New(),
			Name:      string(slug),
			Slug:      slug.String(),
			IsSystem:  true,
			IsDefault: slug == model.SystemRoleMember,
		}
		require.NoError(t, r.Create(ctx, role))

		for _, code := range codes {
			require.NoError(t, r.Create(ctx, &model.RolePermission{
				RoleID:       role.ID,
				PermissionID: permissions[code],
			}))
		}

		roles[slug] = role
	}

	return roles
}

func createOrganization(t *testing.T, r repo.Repo, slug string) *model.Organization {
	t.Helper()

	organization := &model.Organization{
		ID:           uuid.New(),
		Name:         slug,
		Slug:         slug,
		DatabaseName: testDatabasePrefix + slug,
		Status:       model.OrganizationStatusActive,
	}
	require.NoError(t, r.Create(t.Context(), organization))

	return organization
}

func addMember(
	t *testing.T,
	r repo.Repo,
	orgID, userID uuid.UUID,
	role model.ResolvedRole,
) *model.Membership {
	t.Helper()

	membership := &model.Membership{
		ID:             uuid.New(),
		UserID:         userID,
		OrganizationID: orgID,
		CreatedAt:      time.Now().UTC(),
	}
	membership.SetRole(role)
	require.NoError(t, r.Create(t.Context(), membership))

	return membership
}

func ownerRole(t *testing.T) model.ResolvedRole {
	t.Helper()

	role, err := model.BuiltInRole(model.SystemRoleOwner)
	require.NoError(t, err)

	return role
}
