package manager

import "errors"

var (
	ErrNameCannotBeEmpty  = errors.New("name field cannot be empty")
	ErrInvalidSlugPattern = errors.New("invalid slug pattern")

	ErrDuplicateOrganizationSlug = errors.New("organization slug already in use")
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrProvisionOrganization     = errors.New("failed to provision organization database")
	ErrCreateOrganization        = errors.New("failed to create organization")
	ErrUpdateOrganization        = errors.New("failed to update organization")
	ErrDeleteOrganization        = errors.New("failed to delete organization")
	ErrListOrganizations         = errors.New("failed to list organizations")

	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrAlreadyMember      = errors.New("user is already a member of the organization")

	ErrAmbiguousRoleSelection = errors.New("role and organization role are mutually exclusive")
	ErrEmptyRoleSelection     = errors.New("either role or organization role must be given")
	ErrRoleNotFound           = errors.New("role not found")
	ErrCrossTenantRole        = errors.New("role belongs to a different organization")
	ErrLastOwner              = errors.New("cannot remove last owner")

	ErrDuplicateRoleSlug   = errors.New("role slug already in use for the organization")
	ErrSystemRoleImmutable = errors.New("system roles cannot be modified")
	ErrRoleInUse           = errors.New("role is still assigned to memberships")
	ErrPermissionNotFound  = errors.New("permission not found")

	ErrApplicationNotFound  = errors.New("application not found")
	ErrAlreadySubscribed    = errors.New("organization is already subscribed to the application")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)
