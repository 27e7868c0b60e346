package apierrors

import (
	"net/http"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
)

var subscriptions = []errs.ExposedErrors[*APIError]{
	{
		InternalErrorChain: []error{manager.ErrApplicationNotFound},
		ExposedError: &APIError{
			Code:    "APPLICATION_NOT_FOUND",
			Message: "Application is not part of the catalog",
			Status:  http.StatusNotFound,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrAlreadySubscribed},
		ExposedError: &APIError{
			Code:    "ALREADY_SUBSCRIBED",
			Message: "Organization is already subscribed to the application",
			Status:  http.StatusConflict,
		},
	},
	{
		InternalErrorChain: []error{manager.ErrSubscriptionNotFound},
		ExposedError: &APIError{
			Code:    "SUBSCRIPTION_NOT_FOUND",
			Message: "Subscription does not exist for the organization",
			Status:  http.StatusNotFound,
		},
	},
}
