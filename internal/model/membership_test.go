package model_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
)

func TestResolvedRole(t *testing.T) {
	t.Run("built-in", func(t *testing.T) {
		resolved, err := model.BuiltInRole(model.SystemRoleAdmin)
		require.NoError(t, err)

		assert.Equal(t, model.RoleKindBuiltIn, resolved.Kind())
		assert.True(t, resolved.IsResolved())

		slug, ok := resolved.BuiltIn()
		assert.True(t, ok)
		assert.Equal(t, model.SystemRoleAdmin, slug)

		_, ok = resolved.Custom()
		assert.False(t, ok)
	})

	t.Run("built-in rejects unknown slugs", func(t *testing.T) {
		_, err := model.BuiltInRole(model.SystemRole("root"))
		assert.ErrorIs(t, err, model.ErrInvalidSystemRole)
	})

	t.Run("custom", func(t *testing.T) {
		roleID := uuid.New()
		resolved := model.CustomRole(roleID)

		assert.Equal(t, model.RoleKindCustom, resolved.Kind())

		id, ok := resolved.Custom()
		assert.True(t, ok)
		assert.Equal(t, roleID, id)

		_, ok = resolved.BuiltIn()
		assert.False(t, ok)
	})

	t.Run("zero value is unresolved", func(t *testing.T) {
		var resolved model.ResolvedRole

		assert.Equal(t, model.RoleKindUnresolved, resolved.Kind())
		assert.False(t, resolved.IsResolved())
	})
}

func TestMembershipSetRole(t *testing.T) {
	roleID := uuid.New()

	t.Run("built-in clears the custom column", func(t *testing.T) {
		membership := &model.Membership{OrganizationRoleID: &roleID}

		admin, err := model.BuiltInRole(model.SystemRoleAdmin)
		require.NoError(t, err)
		membership.SetRole(admin)

		require.NotNil(t, membership.Role)
		assert.Equal(t, model.SystemRoleAdmin, *membership.Role)
		assert.Nil(t, membership.OrganizationRoleID)
	})

	t.Run("custom clears the built-in column", func(t *testing.T) {
		owner := model.SystemRoleOwner
		membership := &model.Membership{Role: &owner}

		membership.SetRole(model.CustomRole(roleID))

		assert.Nil(t, membership.Role)
		require.NotNil(t, membership.OrganizationRoleID)
		assert.Equal(t, roleID, *membership.OrganizationRoleID)
	})

	t.Run("unresolved clears both", func(t *testing.T) {
		owner := model.SystemRoleOwner
		membership := &model.Membership{Role: &owner, OrganizationRoleID: &roleID}

		membership.SetRole(model.ResolvedRole{})

		assert.Nil(t, membership.Role)
		assert.Nil(t, membership.OrganizationRoleID)
	})
}

func TestMembershipResolvedRole(t *testing.T) {
	roleID := uuid.New()

	t.Run("round-trips both representations", func(t *testing.T) {
		membership := &model.Membership{}

		admin, err := model.BuiltInRole(model.SystemRoleAdmin)
		require.NoError(t, err)
		membership.SetRole(admin)

		resolved, err := membership.ResolvedRole()
		require.NoError(t, err)
		assert.Equal(t, admin, resolved)

		membership.SetRole(model.CustomRole(roleID))

		resolved, err = membership.ResolvedRole()
		require.NoError(t, err)
		assert.Equal(t, model.CustomRole(roleID), resolved)
	})

	t.Run("both columns set is corrupt", func(t *testing.T) {
		owner := model.SystemRoleOwner
		membership := &model.Membership{Role: &owner, OrganizationRoleID: &roleID}

		_, err := membership.ResolvedRole()
		assert.ErrorIs(t, err, model.ErrConflictingRoleColumns)
	})

	t.Run("empty columns resolve to unresolved", func(t *testing.T) {
		resolved, err := (&model.Membership{}).ResolvedRole()
		require.NoError(t, err)
		assert.False(t, resolved.IsResolved())
	})
}

func TestMembershipIsOwner(t *testing.T) {
	owner := model.SystemRoleOwner
	admin := model.SystemRoleAdmin
	roleID := uuid.New()

	assert.True(t, (&model.Membership{Role: &owner}).IsOwner())
	assert.False(t, (&model.Membership{Role: &admin}).IsOwner())
	assert.False(t, (&model.Membership{OrganizationRoleID: &roleID}).IsOwner())
	assert.False(t, (&model.Membership{}).IsOwner())
}
