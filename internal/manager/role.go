package manager

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
)

// CreateRole carries the fields for a new custom organization role.
type CreateRole struct {
	Name        string
	Slug        string
	Description string
}

// RoleManager maintains the custom role set of each organization. The shared
// system roles are seeded at startup and immutable here.
type RoleManager struct {
	repo repo.Repo
}

func NewRoleManager(repository repo.Repo) *RoleManager {
	return &RoleManager{repo: repository}
}

// CreateCustomRole adds a tenant-owned role with an empty permission set.
func (m *RoleManager) CreateCustomRole(
	ctx context.Context,
	organizationID uuid.UUID,
	in CreateRole,
) (*model.Role, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errs.Wrapf(ErrNameCannotBeEmpty, "role name")
	}

	if !slugPattern.MatchString(in.Slug) {
		return nil, errs.Wrapf(ErrInvalidSlugPattern, "%q", in.Slug)
	}

	_, err := m.repo.First(ctx, &model.Organization{ID: organizationID}, *repo.NewQuery())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrOrganizationNotFound, err)
		}

		return nil, err
	}

	_, err = m.repo.First(ctx, &model.Role{}, *repo.NewQuery().
		Where(repo.SlugField, in.Slug).
		Where(repo.OrganizationIDField, &organizationID))
	if err == nil {
		return nil, errs.Wrapf(ErrDuplicateRoleSlug, "%q", in.Slug)
	}

	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	role := &model.Role{
		ID:             uuid.New(),
		Name:           in.Name,
		Slug:           in.Slug,
		Description:    in.Description,
		OrganizationID: &organizationID,
	}

	err = m.repo.Create(ctx, role)
	if err != nil {
		if errors.Is(err, repo.ErrUniqueConstraint) {
			return nil, errs.Wrap(ErrDuplicateRoleSlug, err)
		}

		return nil, err
	}

	return role, nil
}

// ListRoles returns the roles assignable within the organization: the shared
// system roles followed by the organization's custom roles.
func (m *RoleManager) ListRoles(
	ctx context.Context,
	organizationID uuid.UUID,
) ([]*model.Role, error) {
	var system []*model.Role

	_, err := m.repo.List(ctx, model.Role{}, &system,
		*repo.NewQuery().Where(repo.IsSystemField, true).OrderBy(repo.SlugField, repo.Asc))
	if err != nil {
		return nil, err
	}

	var custom []*model.Role

	_, err = m.repo.List(ctx, model.Role{}, &custom,
		*repo.NewQuery().Where(repo.OrganizationIDField, &organizationID).
			OrderBy(repo.SlugField, repo.Asc))
	if err != nil {
		return nil, err
	}

	return append(system, custom...), nil
}

// SetRolePermissions replaces the permission set of a custom role with the
// permissions named by the given codes.
func (m *RoleManager) SetRolePermissions(
	ctx context.Context,
	organizationID, roleID uuid.UUID,
	codes []string,
) error {
	role, err := m.customRole(ctx, organizationID, roleID)
	if err != nil {
		return err
	}

	permissionIDs := make([]uuid.UUID, 0, len(codes))

	for _, code := range codes {
		permission := &model.Permission{}

		_, err = m.repo.First(ctx, permission, *repo.NewQuery().Where(repo.CodeField, code))
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errs.Wrapf(ErrPermissionNotFound, "%q", code)
			}

			return err
		}

		permissionIDs = append(permissionIDs, permission.ID)
	}

	return m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
		_, err := tx.Delete(ctx, &model.RolePermission{},
			*repo.NewQuery().Where(repo.RoleIDField, role.ID))
		if err != nil {
			return err
		}

		for _, permissionID := range permissionIDs {
			err = tx.Create(ctx, &model.RolePermission{
				RoleID:       role.ID,
				PermissionID: permissionID,
			})
			if err != nil && !errors.Is(err, repo.ErrUniqueConstraint) {
				return err
			}
		}

		return nil
	})
}

// DeleteRole removes a custom role and its permission grants. Roles still
// assigned to a membership cannot be deleted.
func (m *RoleManager) DeleteRole(
	ctx context.Context,
	organizationID, roleID uuid.UUID,
) error {
	role, err := m.customRole(ctx, organizationID, roleID)
	if err != nil {
		return err
	}

	assigned, err := m.repo.Count(ctx, model.Membership{},
		*repo.NewQuery().Where(repo.OrganizationRoleIDField, &role.ID))
	if err != nil {
		return err
	}

	if assigned > 0 {
		return errs.Wrapf(ErrRoleInUse, "%d memberships", assigned)
	}

	return m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
		_, err := tx.Delete(ctx, &model.RolePermission{},
			*repo.NewQuery().Where(repo.RoleIDField, role.ID))
		if err != nil {
			return err
		}

		deleted, err := tx.Delete(ctx, &model.Role{ID: role.ID}, *repo.NewQuery())
		if err != nil {
			return err
		}

		if !deleted {
			return errs.Wrapf(ErrRoleNotFound, "%s", role.ID)
		}

		return nil
	})
}

// customRole loads a role and verifies it is a custom role of the given
// organization. System roles are rejected as immutable, foreign roles as
// cross-tenant.
func (m *RoleManager) customRole(
	ctx context.Context,
	organizationID, roleID uuid.UUID,
) (*model.Role, error) {
	role := &model.Role{ID: roleID}

	_, err := m.repo.First(ctx, role, *repo.NewQuery())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrRoleNotFound, err)
		}

		return nil, err
	}

	if role.IsSystem {
		return nil, errs.Wrapf(ErrSystemRoleImmutable, "%q", role.Slug)
	}

	if !role.BelongsTo(organizationID) {
		return nil, errs.Wrapf(ErrCrossTenantRole, "%s", role.ID)
	}

	return role, nil
}
