package apierrors

import (
	"net/http"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
)

// highPrio wins over every best-chain match: the last-owner rule must never
// be masked by the not-found or conflict codes of the errors wrapped around it.
var highPrio = []errs.ExposedErrors[*APIError]{
	{
		InternalErrorChain: []error{manager.ErrLastOwner},
		ExposedError: &APIError{
			Code:    "LAST_OWNER",
			Message: "The last owner of an organization cannot be removed",
			Status:  http.StatusBadRequest,
		},
	},
}
