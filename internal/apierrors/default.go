package apierrors

import (
	"net/http"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
)

const (
	ResourceNotFound = "RESOURCE_NOT_FOUND"
	UniqueError      = "UNIQUE_ERROR"
	BadRequest       = "BAD_REQUEST"
	GetResource      = "GET_RESOURCE"
)

var defaultMapper = []errs.ExposedErrors[*APIError]{
	{
		InternalErrorChain: []error{repo.ErrUniqueConstraint},
		ExposedError: &APIError{
			Code:    UniqueError,
			Message: "Resource with such ID already exists",
			Status:  http.StatusConflict,
		},
	},
	{
		InternalErrorChain: []error{repo.ErrNotFound},
		ExposedError: &APIError{
			Code:    ResourceNotFound,
			Message: "The requested resource was not found",
			Status:  http.StatusNotFound,
		},
	},
	{
		InternalErrorChain: []error{repo.ErrInvalidUUID},
		ExposedError: &APIError{
			Code:    BadRequest,
			Message: "Invalid uuid provided",
			Status:  http.StatusBadRequest,
		},
	},
	{
		InternalErrorChain: []error{repo.ErrGetResource},
		ExposedError: &APIError{
			Code:    GetResource,
			Message: "Failed to read the requested resource",
			Status:  http.StatusInternalServerError,
		},
	},
}
