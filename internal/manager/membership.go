package manager

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
)

// RoleSelection is the caller-facing role input of membership operations.
// At most one of the two fields may be set; an empty selection falls back to
// the default system role on Add and is rejected on Update.
type RoleSelection struct {
	Role               *model.SystemRole
	OrganizationRoleID *uuid.UUID
}

// OrganizationUser is the directory projection of one member: the user row
// joined with its membership and the display data of the assigned role.
type OrganizationUser struct {
	User       model.User
	Membership model.Membership
	RoleSlug   string
	RoleName   string
}

// MembershipManager relates users to organizations and resolves role
// selections against the shared and tenant-owned role sets.
type MembershipManager struct {
	repo  repo.Repo
	users User
}

func NewMembershipManager(repository repo.Repo, users User) *MembershipManager {
	return &MembershipManager{
		repo:  repository,
		users: users,
	}
}

// ResolveRoleSelection turns a caller selection into a resolved role.
// A custom role reference is verified against the role table: system roles
// collapse to their built-in slug, tenant roles must belong to the given
// organization. An empty selection resolves to the default system role.
func (m *MembershipManager) ResolveRoleSelection(
	ctx context.Context,
	organizationID uuid.UUID,
	selection RoleSelection,
) (model.ResolvedRole, error) {
	if selection.Role != nil && selection.OrganizationRoleID != nil {
		return model.ResolvedRole{}, ErrAmbiguousRoleSelection
	}

	if selection.OrganizationRoleID != nil {
		role := &model.Role{ID: *selection.OrganizationRoleID}

		_, err := m.repo.First(ctx, role, *repo.NewQuery())
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return model.ResolvedRole{}, errs.Wrap(ErrRoleNotFound, err)
			}

			return model.ResolvedRole{}, err
		}

		if role.IsSystem {
			return model.BuiltInRole(model.SystemRole(role.Slug))
		}

		if !role.BelongsTo(organizationID) {
			return model.ResolvedRole{}, errs.Wrapf(ErrCrossTenantRole, "%s", role.ID)
		}

		return model.CustomRole(role.ID), nil
	}

	if selection.Role == nil {
		return model.BuiltInRole(model.SystemRoleMember)
	}

	return model.BuiltInRole(*selection.Role)
}

// AddUserToOrganization adds the user identified by id or email as a member.
func (m *MembershipManager) AddUserToOrganization(
	ctx context.Context,
	organizationID uuid.UUID,
	identifier string,
	selection RoleSelection,
) (*model.Membership, error) {
	err := m.organizationExists(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	user, err := m.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	_, err = m.GetUserOrganizationMembership(ctx, organizationID, user.ID)
	if err == nil {
		return nil, errs.Wrapf(ErrAlreadyMember, "user %s", user.ID)
	}

	if !errors.Is(err, ErrMembershipNotFound) {
		return nil, err
	}

	resolved, err := m.ResolveRoleSelection(ctx, organizationID, selection)
	if err != nil {
		return nil, err
	}

	membership := &model.Membership{
		ID:             uuid.New(),
		UserID:         user.ID,
		OrganizationID: organizationID,
		CreatedAt:      time.Now().UTC(),
	}
	membership.SetRole(resolved)

	err = m.repo.Create(ctx, membership)
	if err != nil {
		if errors.Is(err, repo.ErrUniqueConstraint) {
			return nil, errs.Wrap(ErrAlreadyMember, err)
		}

		return nil, err
	}

	log.Info(log.InjectOrganization(ctx, organizationID), "member added",
		log.UserAttr(user.ID))

	return membership, nil
}

// UpdateUserRole replaces the role of an existing membership. Both role
// columns are written so the losing representation is cleared.
func (m *MembershipManager) UpdateUserRole(
	ctx context.Context,
	organizationID, userID uuid.UUID,
	selection RoleSelection,
) (*model.Membership, error) {
	if selection.Role == nil && selection.OrganizationRoleID == nil {
		return nil, ErrEmptyRoleSelection
	}

	membership, err := m.GetUserOrganizationMembership(ctx, organizationID, userID)
	if err != nil {
		return nil, err
	}

	resolved, err := m.ResolveRoleSelection(ctx, organizationID, selection)
	if err != nil {
		return nil, err
	}

	membership.SetRole(resolved)

	_, err = m.repo.Patch(ctx, membership,
		*repo.NewQuery().UpdateColumns(repo.RoleField, repo.OrganizationRoleIDField))
	if err != nil {
		return nil, err
	}

	return membership, nil
}

// RemoveUserFromOrganization deletes a membership. The owner count check and
// the delete run in one transaction so concurrent removals cannot strip the
// last owner.
func (m *MembershipManager) RemoveUserFromOrganization(
	ctx context.Context,
	organizationID, userID uuid.UUID,
) error {
	return m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
		membership := &model.Membership{}

		_, err := tx.First(ctx, membership, *repo.NewQuery().
			Where(repo.UserIDField, userID).
			Where(repo.OrganizationIDField, organizationID))
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errs.Wrap(ErrMembershipNotFound, err)
			}

			return err
		}

		if membership.IsOwner() {
			owners, err := tx.Count(ctx, model.Membership{}, *repo.NewQuery().
				Where(repo.OrganizationIDField, organizationID).
				Where(repo.RoleField, model.SystemRoleOwner))
			if err != nil {
				return err
			}

			if owners <= 1 {
				return errs.Wrapf(ErrLastOwner, "organization %s", organizationID)
			}
		}

		_, err = tx.Delete(ctx, &model.Membership{ID: membership.ID}, *repo.NewQuery())

		return err
	})
}

// GetUserOrganizationMembership returns the membership of the user in the
// organization.
func (m *MembershipManager) GetUserOrganizationMembership(
	ctx context.Context,
	organizationID, userID uuid.UUID,
) (*model.Membership, error) {
	membership := &model.Membership{}

	_, err := m.repo.First(ctx, membership, *repo.NewQuery().
		Where(repo.UserIDField, userID).
		Where(repo.OrganizationIDField, organizationID))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrMembershipNotFound, err)
		}

		return nil, err
	}

	return membership, nil
}

// GetOrganizationUsers lists the members of an organization with their
// assigned role's display data.
func (m *MembershipManager) GetOrganizationUsers(
	ctx context.Context,
	organizationID uuid.UUID,
) ([]*OrganizationUser, error) {
	err := m.organizationExists(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var memberships []*model.Membership

	_, err = m.repo.List(ctx, model.Membership{}, &memberships,
		*repo.NewQuery().Where(repo.OrganizationIDField, organizationID))
	if err != nil {
		return nil, err
	}

	users := make([]*OrganizationUser, 0, len(memberships))

	for _, membership := range memberships {
		user, err := m.users.GetByID(ctx, membership.UserID)
		if err != nil {
			return nil, err
		}

		entry := &OrganizationUser{
			User:       *user,
			Membership: *membership,
		}

		role, err := m.assignedRole(ctx, membership)
		if err != nil {
			return nil, err
		}

		if role != nil {
			entry.RoleSlug = role.Slug
			entry.RoleName = role.Name
		}

		users = append(users, entry)
	}

	return users, nil
}

// EffectivePermissions returns the deduplicated permission codes granted by
// the membership's role, sorted for stable output. An unresolved membership
// grants nothing.
func (m *MembershipManager) EffectivePermissions(
	ctx context.Context,
	membership *model.Membership,
) ([]string, error) {
	role, err := m.assignedRole(ctx, membership)
	if err != nil {
		return nil, err
	}

	if role == nil {
		return []string{}, nil
	}

	var grants []*model.RolePermission

	_, err = m.repo.List(ctx, model.RolePermission{}, &grants,
		*repo.NewQuery().Where(repo.RoleIDField, role.ID))
	if err != nil {
		return nil, err
	}

	if len(grants) == 0 {
		return []string{}, nil
	}

	ids := make([]uuid.UUID, 0, len(grants))
	for _, grant := range grants {
		ids = append(ids, grant.PermissionID)
	}

	var permissions []*model.Permission

	_, err = m.repo.List(ctx, model.Permission{}, &permissions,
		*repo.NewQuery().Where(repo.IDField, ids, repo.In))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(permissions))
	codes := make([]string, 0, len(permissions))

	for _, permission := range permissions {
		if _, dup := seen[permission.Code]; dup {
			continue
		}

		seen[permission.Code] = struct{}{}
		codes = append(codes, permission.Code)
	}

	sort.Strings(codes)

	return codes, nil
}

// assignedRole loads the role row behind a membership, nil when unresolved.
func (m *MembershipManager) assignedRole(
	ctx context.Context,
	membership *model.Membership,
) (*model.Role, error) {
	resolved, err := membership.ResolvedRole()
	if err != nil {
		return nil, err
	}

	query := repo.NewQuery()

	switch resolved.Kind() {
	case model.RoleKindBuiltIn:
		slug, _ := resolved.BuiltIn()
		query.Where(repo.SlugField, slug.String()).Where(repo.IsSystemField, true)
	case model.RoleKindCustom:
		roleID, _ := resolved.Custom()
		query.Where(repo.IDField, roleID)
	case model.RoleKindUnresolved:
		return nil, nil
	}

	role := &model.Role{}

	_, err = m.repo.First(ctx, role, *query)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrRoleNotFound, err)
		}

		return nil, err
	}

	return role, nil
}

func (m *MembershipManager) organizationExists(ctx context.Context, id uuid.UUID) error {
	_, err := m.repo.First(ctx, &model.Organization{ID: id}, *repo.NewQuery())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errs.Wrap(ErrOrganizationNotFound, err)
		}

		return err
	}

	return nil
}
