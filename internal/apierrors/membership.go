package apierrors

import (
	"net/http"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
)

var memberships = []errs.ExposedErrors[*APIError]{
	{
		InternalErrorChain: []error{manager.ErrAlreadyMember},
		ExposedError: &APIError{
			Code:    "ALREADY_MEMBER",
			Message: "User is already a member of the organization",
			Status:  http.StatusConflict,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrMembershipNotFound},
		ExposedError: &APIError{
			Code:    "MEMBERSHIP_NOT_FOUND",
			Message: "User is not a member of the organization",
			Status:  http.StatusNotFound,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrLastOwner},
		ExposedError: &APIError{
			Code:    "LAST_OWNER",
			Message: "The last owner of an organization cannot be removed",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrAmbiguousRoleSelection},
		ExposedError: &APIError{
			Code:    ValidationErr,
			Message: "Role and organization role are mutually exclusive",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrEmptyRoleSelection},
		ExposedError: &APIError{
			Code:    ValidationErr,
			Message: "Either role or organization role must be given",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrCrossTenantRole},
		ExposedError: &APIError{
			Code:    "CROSS_TENANT_ROLE",
			Message: "Role belongs to a different organization",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{model.ErrInvalidSystemRole},
		ExposedError: &APIError{
			Code:    ValidationErr,
			Message: "Unknown system role",
			Status:  http.StatusBadRequest,
		},
	},
}
