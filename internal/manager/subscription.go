package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
)

// SubscriptionWindow bounds the validity of a subscription. A zero StartsAt
// means now; a nil EndsAt means open-ended.
type SubscriptionWindow struct {
	StartsAt time.Time
	EndsAt   *time.Time
}

// SubscriptionManager maintains the application catalog and the per-tenant
// subscriptions against it. The catalog is seeded lazily from the configured
// application list on first use.
type SubscriptionManager struct {
	repo  repo.Repo
	seeds []config.ApplicationSeed

	seedMu sync.Mutex
	seeded bool
}

func NewSubscriptionManager(
	repository repo.Repo,
	seeds []config.ApplicationSeed,
) *SubscriptionManager {
	return &SubscriptionManager{
		repo:  repository,
		seeds: seeds,
	}
}

// ListAvailable returns the catalog applications the organization can still
// subscribe to: available entries without an existing subscription.
func (m *SubscriptionManager) ListAvailable(
	ctx context.Context,
	organizationID uuid.UUID,
) ([]*model.Application, error) {
	err := m.ensureSeeded(ctx)
	if err != nil {
		return nil, err
	}

	err = m.organizationExists(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var subscriptions []*model.Subscription

	_, err = m.repo.List(ctx, model.Subscription{}, &subscriptions,
		*repo.NewQuery().Where(repo.OrganizationIDField, organizationID))
	if err != nil {
		return nil, err
	}

	subscribed := make(map[uuid.UUID]struct{}, len(subscriptions))
	for _, subscription := range subscriptions {
		subscribed[subscription.ApplicationID] = struct{}{}
	}

	var applications []*model.Application

	_, err = m.repo.List(ctx, model.Application{}, &applications,
		*repo.NewQuery().
			Where(repo.StatusField, model.ApplicationStatusAvailable).
			OrderBy(repo.SlugField, repo.Asc))
	if err != nil {
		return nil, err
	}

	available := make([]*model.Application, 0, len(applications))

	for _, application := range applications {
		if _, taken := subscribed[application.ID]; taken {
			continue
		}

		available = append(available, application)
	}

	return available, nil
}

// ListSubscriptions returns the organization's subscriptions.
func (m *SubscriptionManager) ListSubscriptions(
	ctx context.Context,
	organizationID uuid.UUID,
) ([]*model.Subscription, error) {
	err := m.organizationExists(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var subscriptions []*model.Subscription

	_, err = m.repo.List(ctx, model.Subscription{}, &subscriptions,
		*repo.NewQuery().Where(repo.OrganizationIDField, organizationID))
	if err != nil {
		return nil, err
	}

	return subscriptions, nil
}

// Subscribe installs a catalog application for the organization.
func (m *SubscriptionManager) Subscribe(
	ctx context.Context,
	organizationID, applicationID uuid.UUID,
	window SubscriptionWindow,
) (*model.Subscription, error) {
	err := m.ensureSeeded(ctx)
	if err != nil {
		return nil, err
	}

	err = m.organizationExists(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	application := &model.Application{ID: applicationID}

	_, err = m.repo.First(ctx, application, *repo.NewQuery())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrApplicationNotFound, err)
		}

		return nil, err
	}

	if application.Status != model.ApplicationStatusAvailable {
		return nil, errs.Wrapf(ErrApplicationNotFound, "%q is retired", application.Slug)
	}

	_, err = m.repo.First(ctx, &model.Subscription{}, *repo.NewQuery().
		Where(repo.OrganizationIDField, organizationID).
		Where(repo.ApplicationIDField, applicationID))
	if err == nil {
		return nil, errs.Wrapf(ErrAlreadySubscribed, "%q", application.Slug)
	}

	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	startsAt := window.StartsAt
	if startsAt.IsZero() {
		startsAt = time.Now().UTC()
	}

	subscription := &model.Subscription{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		ApplicationID:  applicationID,
		Status:         model.SubscriptionStatusActive,
		StartsAt:       startsAt,
		EndsAt:         window.EndsAt,
	}

	err = m.repo.Create(ctx, subscription)
	if err != nil {
		if errors.Is(err, repo.ErrUniqueConstraint) {
			return nil, errs.Wrap(ErrAlreadySubscribed, err)
		}

		return nil, err
	}

	return subscription, nil
}

// Unsubscribe removes a subscription of the organization.
func (m *SubscriptionManager) Unsubscribe(
	ctx context.Context,
	organizationID, subscriptionID uuid.UUID,
) error {
	deleted, err := m.repo.Delete(ctx, &model.Subscription{ID: subscriptionID},
		*repo.NewQuery().Where(repo.OrganizationIDField, organizationID))
	if err != nil {
		return err
	}

	if !deleted {
		return errs.Wrapf(ErrSubscriptionNotFound, "%s", subscriptionID)
	}

	return nil
}

// ExpireLapsed marks every active subscription whose window has closed as
// expired and returns the number of subscriptions it touched. Open-ended
// subscriptions are never expired.
func (m *SubscriptionManager) ExpireLapsed(ctx context.Context, now time.Time) (int, error) {
	expired := 0

	for {
		var lapsed []*model.Subscription

		_, err := m.repo.List(ctx, model.Subscription{}, &lapsed,
			*repo.NewQuery().
				Where(repo.StatusField, model.SubscriptionStatusActive).
				Where(repo.EndsAtField, now, repo.LessThan).
				SetLimit(repo.DefaultLimit))
		if err != nil {
			return expired, err
		}

		if len(lapsed) == 0 {
			return expired, nil
		}

		for _, subscription := range lapsed {
			subscription.Status = model.SubscriptionStatusExpired

			_, err = m.repo.Patch(ctx, subscription,
				*repo.NewQuery().UpdateColumns(repo.StatusField))
			if err != nil {
				return expired, err
			}

			expired++

			log.Debug(log.InjectOrganization(ctx, subscription.OrganizationID),
				"subscription expired")
		}
	}
}

// ensureSeeded writes the configured application catalog into the store,
// tolerating entries already present. A failed attempt is retried on the
// next call instead of being latched for the process lifetime.
func (m *SubscriptionManager) ensureSeeded(ctx context.Context) error {
	m.seedMu.Lock()
	defer m.seedMu.Unlock()

	if m.seeded {
		return nil
	}

	for _, seed := range m.seeds {
		application := &model.Application{}

		_, err := m.repo.First(ctx, application,
			*repo.NewQuery().Where(repo.SlugField, seed.Slug))
		if err == nil {
			continue
		}

		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		err = m.repo.Create(ctx, &model.Application{
			ID:       uuid.New(),
			Name:     seed.Name,
			Slug:     seed.Slug,
			Category: seed.Category,
			Status:   model.ApplicationStatusAvailable,
		})
		if err != nil && !errors.Is(err, repo.ErrUniqueConstraint) {
			return err
		}
	}

	m.seeded = true

	return nil
}

func (m *SubscriptionManager) organizationExists(ctx context.Context, id uuid.UUID) error {
	_, err := m.repo.First(ctx, &model.Organization{ID: id}, *repo.NewQuery())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errs.Wrap(ErrOrganizationNotFound, err)
		}

		return err
	}

	return nil
}
