package apierrors

import (
	"net/http"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
)

var users = []errs.ExposedErrors[*APIError]{
	{
		InternalErrorChain: []error{manager.ErrUserNotFound},
		ExposedError: &APIError{
			Code:    "USER_NOT_FOUND",
			Message: "User does not exist",
			Status:  http.StatusNotFound,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrDuplicateEmail},
		ExposedError: &APIError{
			Code:    "EMAIL_TAKEN",
			Message: "A user with this email already exists",
			Status:  http.StatusConflict,
		},
	},
}
