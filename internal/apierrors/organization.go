package apierrors

import (
	"net/http"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/registry"
)

var organizations = []errs.ExposedErrors[*APIError]{
	{
		InternalErrorChain: []error{manager.ErrDuplicateOrganizationSlug},
		ExposedError: &APIError{
			Code:    "ORGANIZATION_SLUG_TAKEN",
			Message: "An organization with this slug already exists",
			Status:  http.StatusConflict,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrOrganizationNotFound},
		ExposedError: &APIError{
			Code:    "ORGANIZATION_NOT_FOUND",
			Message: "Organization does not exist",
			Status:  http.StatusNotFound,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrNameCannotBeEmpty},
		ExposedError: &APIError{
			Code:    ValidationErr,
			Message: "Name cannot be empty",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrInvalidSlugPattern},
		ExposedError: &APIError{
			Code:    ValidationErr,
			Message: "Slug must be lowercase alphanumeric with single dashes",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{model.ErrInvalidOrganizationTransition},
		ExposedError: &APIError{
			Code:    "INVALID_STATUS_TRANSITION",
			Message: "The organization status does not allow the requested transition",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrProvisionOrganization},
		ExposedError: &APIError{
			Code:    "TENANT_DATABASE_UNAVAILABLE",
			Message: "Tenant database could not be provisioned",
			Status:  http.StatusServiceUnavailable,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrProvisionOrganization, registry.ErrDatabasePermission},
		ExposedError: &APIError{
			Code:    "TENANT_DATABASE_FORBIDDEN",
			Message: "Storage credentials may not create tenant databases",
			Status:  http.StatusForbidden,
		},
	},
	{
		InternalErrorChain: []error{registry.ErrDatabaseNamePattern},
		ExposedError: &APIError{
			Code:    ValidationErr,
			Message: "Tenant database name contains invalid characters",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{registry.ErrDatabaseNameLength},
		ExposedError: &APIError{
			Code:    ValidationErr,
			Message: "Tenant database name length is out of bounds",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{registry.ErrDatabaseUnavailable},
		ExposedError: &APIError{
			Code:    "TENANT_DATABASE_UNAVAILABLE",
			Message: "Tenant database is unreachable",
			Status:  http.StatusServiceUnavailable,
		},
	},
	{
		InternalErrorChain: []error{registry.ErrDatabasePermission},
		ExposedError: &APIError{
			Code:    "TENANT_DATABASE_FORBIDDEN",
			Message: "Storage credentials may not create tenant databases",
			Status:  http.StatusForbidden,
		},
	},
}
