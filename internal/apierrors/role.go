package apierrors

import (
	"net/http"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
)

var roles = []errs.ExposedErrors[*APIError]{
	{
		InternalErrorChain: []error{manager.ErrRoleNotFound},
		ExposedError: &APIError{
			Code:    "ROLE_NOT_FOUND",
			Message: "Role does not exist",
			Status:  http.StatusNotFound,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrDuplicateRoleSlug},
		ExposedError: &APIError{
			Code:    "ROLE_SLUG_TAKEN",
			Message: "A role with this slug already exists in the organization",
			Status:  http.StatusConflict,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrSystemRoleImmutable},
		ExposedError: &APIError{
			Code:    "SYSTEM_ROLE_IMMUTABLE",
			Message: "System roles cannot be modified or deleted",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrRoleInUse},
		ExposedError: &APIError{
			Code:    "ROLE_IN_USE",
			Message: "Role is still assigned to memberships",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrPermissionNotFound},
		ExposedError: &APIError{
			Code:    "PERMISSION_NOT_FOUND",
			Message: "Permission code does not exist",
			Status:  http.StatusNotFound,
		},
	},
}
