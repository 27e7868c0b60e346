package manager_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo/mock"
	"github.com/chifouu65/sass-hub-v2-sub000/utils/ptr"
)

// flakyRepo fails a configured number of First calls before behaving like
// the wrapped store.
type flakyRepo struct {
	repo.Repo

	failures int
}

func (f *flakyRepo) First(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, errors.New("store offline")
	}

	return f.Repo.First(ctx, resource, query)
}

// catalogBySlug triggers the lazy seeding and indexes the resulting catalog.
func catalogBySlug(
	t *testing.T,
	managers *manager.Manager,
	organizationID uuid.UUID,
) map[string]*model.Application {
	t.Helper()

	applications, err := managers.Subscriptions.ListAvailable(t.Context(), organizationID)
	require.NoError(t, err)

	catalog := map[string]*model.Application{}
	for _, application := range applications {
		catalog[application.Slug] = application
	}

	return catalog
}

func retireApplication(t *testing.T, r repo.Repo, application *model.Application) {
	t.Helper()

	application.Status = model.ApplicationStatusRetired

	patched, err := r.Patch(t.Context(), application,
		*repo.NewQuery().UpdateColumns(repo.StatusField))
	require.NoError(t, err)
	require.True(t, patched)
}

func TestCatalogSeeding(t *testing.T) {
	managers, repository, _ := newManagers(t)
	organization := createOrganization(t, repository, "acme")

	catalog := catalogBySlug(t, managers, organization.ID)
	require.Len(t, catalog, 4)
	assert.Contains(t, catalog, "crm")
	assert.Contains(t, catalog, "helpdesk")
	assert.Contains(t, catalog, "invoicing")
	assert.Contains(t, catalog, "analytics")

	// Listing again must not duplicate the seeded entries.
	again := catalogBySlug(t, managers, organization.ID)
	assert.Len(t, again, 4)
}

func TestCatalogSeedingRetriesAfterFailure(t *testing.T) {
	repository := mock.NewInMemoryRepository()
	organization := createOrganization(t, repository, "acme")

	flaky := &flakyRepo{Repo: repository, failures: 1}
	subscriptions := manager.NewSubscriptionManager(flaky, config.DefaultApplicationSeeds)

	_, err := subscriptions.ListAvailable(t.Context(), organization.ID)
	require.Error(t, err)

	// The transient failure must not poison every later call.
	applications, err := subscriptions.ListAvailable(t.Context(), organization.ID)
	require.NoError(t, err)
	assert.Len(t, applications, 4)
}

func TestListAvailable(t *testing.T) {
	t.Run("excludes subscribed and retired applications", func(t *testing.T) {
		managers, repository, _ := newManagers(t)
		organization := createOrganization(t, repository, "acme")

		catalog := catalogBySlug(t, managers, organization.ID)

		_, err := managers.Subscriptions.Subscribe(t.Context(), organization.ID,
			catalog["crm"].ID, manager.SubscriptionWindow{})
		require.NoError(t, err)

		retireApplication(t, repository, catalog["helpdesk"])

		available, err := managers.Subscriptions.ListAvailable(t.Context(), organization.ID)
		require.NoError(t, err)

		slugs := make([]string, 0, len(available))
		for _, application := range available {
			slugs = append(slugs, application.Slug)
		}

		assert.Equal(t, []string{"analytics", "invoicing"}, slugs)
	})

	t.Run("subscriptions of other organizations do not hide entries", func(t *testing.T) {
		managers, repository, _ := newManagers(t)
		acme := createOrganization(t, repository, "acme")
		globex := createOrganization(t, repository, "globex")

		catalog := catalogBySlug(t, managers, acme.ID)

		_, err := managers.Subscriptions.Subscribe(t.Context(), acme.ID,
			catalog["crm"].ID, manager.SubscriptionWindow{})
		require.NoError(t, err)

		available, err := managers.Subscriptions.ListAvailable(t.Context(), globex.ID)
		require.NoError(t, err)
		assert.Len(t, available, 4)
	})

	t.Run("unknown organization", func(t *testing.T) {
		managers, _, _ := newManagers(t)

		_, err := managers.Subscriptions.ListAvailable(t.Context(), uuid.New())
		assert.ErrorIs(t, err, manager.ErrOrganizationNotFound)
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("creates an active subscription", func(t *testing.T) {
		managers, repository, _ := newManagers(t)
		organization := createOrganization(t, repository, "acme")
		catalog := catalogBySlug(t, managers, organization.ID)

		endsAt := time.Now().UTC().Add(30 * 24 * time.Hour)

		subscription, err := managers.Subscriptions.Subscribe(t.Context(), organization.ID,
			catalog["crm"].ID, manager.SubscriptionWindow{EndsAt: &endsAt})
		require.NoError(t, err)

		assert.Equal(t, model.SubscriptionStatusActive, subscription.Status)
		assert.False(t, subscription.StartsAt.IsZero())
		require.NotNil(t, subscription.EndsAt)
		assert.Equal(t, endsAt, *subscription.EndsAt)
	})

	t.Run("double subscribe is rejected", func(t *testing.T) {
		managers, repository, _ := newManagers(t)
		organization := createOrganization(t, repository, "acme")
		catalog := catalogBySlug(t, managers, organization.ID)

		_, err := managers.Subscriptions.Subscribe(t.Context(), organization.ID,
			catalog["crm"].ID, manager.SubscriptionWindow{})
		require.NoError(t, err)

		_, err = managers.Subscriptions.Subscribe(t.Context(), organization.ID,
			catalog["crm"].ID, manager.SubscriptionWindow{})
		assert.ErrorIs(t, err, manager.ErrAlreadySubscribed)
	})

	t.Run("retired application cannot be subscribed", func(t *testing.T) {
		managers, repository, _ := newManagers(t)
		organization := createOrganization(t, repository, "acme")
		catalog := catalogBySlug(t, managers, organization.ID)

		retired := catalog["helpdesk"]
		retireApplication(t, repository, retired)

		_, err := managers.Subscriptions.Subscribe(t.Context(), organization.ID,
			retired.ID, manager.SubscriptionWindow{})
		assert.ErrorIs(t, err, manager.ErrApplicationNotFound)
	})

	t.Run("unknown application and organization", func(t *testing.T) {
		managers, repository, _ := newManagers(t)
		organization := createOrganization(t, repository, "acme")

		_, err := managers.Subscriptions.Subscribe(t.Context(), organization.ID,
			uuid.New(), manager.SubscriptionWindow{})
		assert.ErrorIs(t, err, manager.ErrApplicationNotFound)

		_, err = managers.Subscriptions.Subscribe(t.Context(), uuid.New(),
			uuid.New(), manager.SubscriptionWindow{})
		assert.ErrorIs(t, err, manager.ErrOrganizationNotFound)
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("removes the subscription", func(t *testing.T) {
		managers, repository, _ := newManagers(t)
		organization := createOrganization(t, repository, "acme")
		catalog := catalogBySlug(t, managers, organization.ID)

		subscription, err := managers.Subscriptions.Subscribe(t.Context(), organization.ID,
			catalog["crm"].ID, manager.SubscriptionWindow{})
		require.NoError(t, err)

		err = managers.Subscriptions.Unsubscribe(t.Context(), organization.ID, subscription.ID)
		require.NoError(t, err)

		subscriptions, err := managers.Subscriptions.ListSubscriptions(
			t.Context(), organization.ID)
		require.NoError(t, err)
		assert.Empty(t, subscriptions)
	})

	t.Run("subscription of another organization is not reachable", func(t *testing.T) {
		managers, repository, _ := newManagers(t)
		acme := createOrganization(t, repository, "acme")
		globex := createOrganization(t, repository, "globex")
		catalog := catalogBySlug(t, managers, acme.ID)

		subscription, err := managers.Subscriptions.Subscribe(t.Context(), acme.ID,
			catalog["crm"].ID, manager.SubscriptionWindow{})
		require.NoError(t, err)

		err = managers.Subscriptions.Unsubscribe(t.Context(), globex.ID, subscription.ID)
		assert.ErrorIs(t, err, manager.ErrSubscriptionNotFound)

		subscriptions, err := managers.Subscriptions.ListSubscriptions(t.Context(), acme.ID)
		require.NoError(t, err)
		assert.Len(t, subscriptions, 1)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		managers, repository, _ := newManagers(t)
		organization := createOrganization(t, repository, "acme")

		err := managers.Subscriptions.Unsubscribe(t.Context(), organization.ID, uuid.New())
		assert.ErrorIs(t, err, manager.ErrSubscriptionNotFound)
	})
}

func TestExpireLapsed(t *testing.T) {
	managers, repository, _ := newManagers(t)
	organization := createOrganization(t, repository, "acme")
	catalog := catalogBySlug(t, managers, organization.ID)

	now := time.Now().UTC()

	lapsed, err := managers.Subscriptions.Subscribe(t.Context(), organization.ID,
		catalog["crm"].ID, manager.SubscriptionWindow{
			StartsAt: now.Add(-48 * time.Hour),
			EndsAt:   ptr.PointTo(now.Add(-time.Hour)),
		})
	require.NoError(t, err)

	running, err := managers.Subscriptions.Subscribe(t.Context(), organization.ID,
		catalog["helpdesk"].ID, manager.SubscriptionWindow{
			EndsAt: ptr.PointTo(now.Add(time.Hour)),
		})
	require.NoError(t, err)

	openEnded, err := managers.Subscriptions.Subscribe(t.Context(), organization.ID,
		catalog["invoicing"].ID, manager.SubscriptionWindow{})
	require.NoError(t, err)

	count, err := managers.Subscriptions.ExpireLapsed(t.Context(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	subscriptions, err := managers.Subscriptions.ListSubscriptions(t.Context(), organization.ID)
	require.NoError(t, err)

	statuses := map[uuid.UUID]model.SubscriptionStatus{}
	for _, subscription := range subscriptions {
		statuses[subscription.ID] = subscription.Status
	}

	assert.Equal(t, model.SubscriptionStatusExpired, statuses[lapsed.ID])
	assert.Equal(t, model.SubscriptionStatusActive, statuses[running.ID])
	assert.Equal(t, model.SubscriptionStatusActive, statuses[openEnded.ID])

	// A second sweep finds nothing left to expire.
	count, err = managers.Subscriptions.ExpireLapsed(t.Context(), now)
	require.NoError(t, err)
	assert.Zero(t, count)
}
