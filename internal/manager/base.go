package manager

import (
	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/registry"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
)

// Manager bundles the control-plane managers behind one constructor so the
// commands wire them consistently.
type Manager struct {
	Users         User
	Organizations *OrganizationManager
	Memberships   *MembershipManager
	Roles         *RoleManager
	Subscriptions *SubscriptionManager
	Registry      *registry.Registry
}

// New builds the manager set on top of the control store repository and the
// tenant connection registry.
func New(
	repository repo.Repo,
	reg *registry.Registry,
	cfg *config.Config,
	seeds []config.ApplicationSeed,
) *Manager {
	users := NewUserManager(repository)

	return &Manager{
		Users:         users,
		Organizations: NewOrganizationManager(repository, reg, cfg.Provisioning.DatabasePrefix),
		Memberships:   NewMembershipManager(repository, users),
		Roles:         NewRoleManager(repository),
		Subscriptions: NewSubscriptionManager(repository, seeds),
		Registry:      reg,
	}
}
