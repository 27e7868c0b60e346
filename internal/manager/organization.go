package manager

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/registry"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CreateOrganization carries the fields for registering a new tenant.
// DatabaseName is optional; when empty it is derived from the slug and the
// configured provisioning prefix.
type CreateOrganization struct {
	Name         string
	Slug         string
	DatabaseName string
	OwnerUserID  uuid.UUID
}

// OrganizationPatch carries the mutable organization fields; nil means
// leave the field untouched.
type OrganizationPatch struct {
	Name         *string
	Slug         *string
	DatabaseName *string
}

// OrganizationManager maintains the tenant directory and drives database
// provisioning through the connection registry.
type OrganizationManager struct {
	repo     repo.Repo
	registry *registry.Registry
	prefix   string
}

func NewOrganizationManager(
	repository repo.Repo,
	reg *registry.Registry,
	databasePrefix string,
) *OrganizationManager {
	return &OrganizationManager{
		repo:     repository,
		registry: reg,
		prefix:   databasePrefix,
	}
}

// Create registers an organization and provisions its database. The physical
// database is created and opened before the directory row is written, so a
// storage-layer failure never leaves a registered tenant without a database.
// The owner membership is written in the same transaction as the
// organization row.
func (m *OrganizationManager) Create(
	ctx context.Context,
	in CreateOrganization,
) (*model.Organization, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errs.Wrapf(ErrNameCannotBeEmpty, "organization name")
	}

	if !slugPattern.MatchString(in.Slug) {
		return nil, errs.Wrapf(ErrInvalidSlugPattern, "%q", in.Slug)
	}

	_, err := m.findBySlug(ctx, in.Slug)
	if err == nil {
		return nil, errs.Wrapf(ErrDuplicateOrganizationSlug, "%q", in.Slug)
	}

	if !errors.Is(err, ErrOrganizationNotFound) {
		return nil, err
	}

	owner := &model.User{ID: in.OwnerUserID}

	_, err = m.repo.First(ctx, owner, *repo.NewQuery())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrUserNotFound, err)
		}

		return nil, err
	}

	dbName := in.DatabaseName
	if dbName == "" {
		dbName = m.prefix + strings.ReplaceAll(in.Slug, "-", "_")
	}

	err = m.provision(ctx, dbName)
	if err != nil {
		return nil, err
	}

	organization := &model.Organization{
		ID:           uuid.New(),
		Name:         in.Name,
		Slug:         in.Slug,
		DatabaseName: dbName,
		Status:       model.OrganizationStatusActive,
	}

	ownerRole, err := model.BuiltInRole(model.SystemRoleOwner)
	if err != nil {
		return nil, err
	}

	membership := &model.Membership{
		ID:             uuid.New(),
		UserID:         owner.ID,
		OrganizationID: organization.ID,
		CreatedAt:      time.Now().UTC(),
	}
	membership.SetRole(ownerRole)

	err = m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
		err := tx.Create(ctx, organization)
		if err != nil {
			if errors.Is(err, repo.ErrUniqueConstraint) {
				return errs.Wrap(ErrDuplicateOrganizationSlug, err)
			}

			return errs.Wrap(ErrCreateOrganization, err)
		}

		err = tx.Create(ctx, membership)
		if err != nil {
			return errs.Wrap(ErrCreateOrganization, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = log.InjectTenantDatabase(log.InjectOrganization(ctx, organization.ID), organization.DatabaseName)
	log.Info(ctx, "organization created")

	return organization, nil
}

// Update patches the mutable organization fields. A database name change
// provisions and opens the new database before the row is updated, then
// disposes the cached handle of the old one.
func (m *OrganizationManager) Update(
	ctx context.Context,
	id uuid.UUID,
	patch OrganizationPatch,
) (*model.Organization, error) {
	organization, err := m.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, 3)
	previousDB := organization.DatabaseName

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, errs.Wrapf(ErrNameCannotBeEmpty, "organization name")
		}

		organization.Name = *patch.Name
		fields = append(fields, repo.NameField)
	}

	if patch.Slug != nil && *patch.Slug != organization.Slug {
		if !slugPattern.MatchString(*patch.Slug) {
			return nil, errs.Wrapf(ErrInvalidSlugPattern, "%q", *patch.Slug)
		}

		_, err = m.findBySlug(ctx, *patch.Slug)
		if err == nil {
			return nil, errs.Wrapf(ErrDuplicateOrganizationSlug, "%q", *patch.Slug)
		}

		if !errors.Is(err, ErrOrganizationNotFound) {
			return nil, err
		}

		organization.Slug = *patch.Slug
		fields = append(fields, repo.SlugField)
	}

	if patch.DatabaseName != nil && *patch.DatabaseName != previousDB {
		err = m.provision(ctx, *patch.DatabaseName)
		if err != nil {
			return nil, err
		}

		organization.DatabaseName = *patch.DatabaseName
		fields = append(fields, repo.DatabaseNameField)
	}

	if len(fields) == 0 {
		return organization, nil
	}

	_, err = m.repo.Patch(ctx, organization, *repo.NewQuery().UpdateColumns(fields...))
	if err != nil {
		if errors.Is(err, repo.ErrUniqueConstraint) {
			return nil, errs.Wrap(ErrDuplicateOrganizationSlug, err)
		}

		return nil, errs.Wrap(ErrUpdateOrganization, err)
	}

	if organization.DatabaseName != previousDB {
		m.registry.Dispose(ctx, previousDB)
	}

	return organization, nil
}

// Remove deletes the organization row. Memberships and subscriptions go with
// it through foreign key cascades. The cached connection is disposed; the
// physical database is retained for out-of-band archival.
func (m *OrganizationManager) Remove(ctx context.Context, id uuid.UUID) error {
	organization, err := m.FindOne(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := m.repo.Delete(ctx, &model.Organization{ID: id}, *repo.NewQuery())
	if err != nil {
		return errs.Wrap(ErrDeleteOrganization, err)
	}

	if !deleted {
		return errs.Wrapf(ErrOrganizationNotFound, "%s", id)
	}

	m.registry.Dispose(ctx, organization.DatabaseName)

	log.Info(log.InjectOrganization(ctx, id), "organization removed")

	return nil
}

// Suspend moves an active organization into the suspended status.
func (m *OrganizationManager) Suspend(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return m.transition(ctx, id, model.TransitionSuspend)
}

// Reactivate moves a suspended organization back to active.
func (m *OrganizationManager) Reactivate(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return m.transition(ctx, id, model.TransitionReactivate)
}

// Deactivate retires the organization; inactive is terminal.
func (m *OrganizationManager) Deactivate(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	organization, err := m.transition(ctx, id, model.TransitionDeactivate)
	if err != nil {
		return nil, err
	}

	m.registry.Dispose(ctx, organization.DatabaseName)

	return organization, nil
}

func (m *OrganizationManager) transition(
	ctx context.Context,
	id uuid.UUID,
	t model.OrganizationTransition,
) (*model.Organization, error) {
	organization, err := m.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	err = organization.Transition(ctx, t)
	if err != nil {
		return nil, err
	}

	_, err = m.repo.Patch(ctx, organization, *repo.NewQuery().UpdateColumns(repo.StatusField))
	if err != nil {
		return nil, errs.Wrap(ErrUpdateOrganization, err)
	}

	return organization, nil
}

// FindOne returns the organization with the given id.
func (m *OrganizationManager) FindOne(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	organization := &model.Organization{ID: id}

	_, err := m.repo.First(ctx, organization, *repo.NewQuery())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrOrganizationNotFound, err)
		}

		return nil, err
	}

	return organization, nil
}

// FindBySlug returns the organization with the given slug.
func (m *OrganizationManager) FindBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	return m.findBySlug(ctx, slug)
}

// FindAll lists organizations ordered by slug, with the total count.
func (m *OrganizationManager) FindAll(
	ctx context.Context,
	skip, top int,
) ([]*model.Organization, int, error) {
	var organizations []*model.Organization

	query := repo.NewQuery().
		OrderBy(repo.SlugField, repo.Asc).
		SetOffset(skip).
		SetLimit(top)

	count, err := m.repo.List(ctx, model.Organization{}, &organizations, *query)
	if err != nil {
		return nil, 0, errs.Wrap(ErrListOrganizations, err)
	}

	return organizations, count, nil
}

// FindByUser lists the organizations the user is a member of.
func (m *OrganizationManager) FindByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*model.Organization, error) {
	var memberships []*model.Membership

	_, err := m.repo.List(ctx, model.Membership{}, &memberships,
		*repo.NewQuery().Where(repo.UserIDField, userID))
	if err != nil {
		return nil, errs.Wrap(ErrListOrganizations, err)
	}

	if len(memberships) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(memberships))
	for _, membership := range memberships {
		ids = append(ids, membership.OrganizationID)
	}

	var organizations []*model.Organization

	_, err = m.repo.List(ctx, model.Organization{}, &organizations,
		*repo.NewQuery().Where(repo.IDField, ids, repo.In).OrderBy(repo.SlugField, repo.Asc))
	if err != nil {
		return nil, errs.Wrap(ErrListOrganizations, err)
	}

	return organizations, nil
}

// provision creates the tenant database if needed and verifies a connection
// can be opened against it.
func (m *OrganizationManager) provision(ctx context.Context, dbName string) error {
	err := m.registry.EnsureDatabase(ctx, dbName)
	if err != nil {
		return errs.Wrap(ErrProvisionOrganization, err)
	}

	_, err = m.registry.GetConnection(ctx, dbName)
	if err != nil {
		return errs.Wrap(ErrProvisionOrganization, err)
	}

	return nil
}

func (m *OrganizationManager) findBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	organization := &model.Organization{}

	_, err := m.repo.First(ctx, organization, *repo.NewQuery().Where(repo.SlugField, slug))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrOrganizationNotFound, err)
		}

		return nil, err
	}

	return organization, nil
}
