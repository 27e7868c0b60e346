package apierrors

import (
	"slices"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
)

// APIErrorMapper transforms internal error chains into the transport-facing
// taxonomy. It picks the mapping with the most matches in the chain, so a
// domain error wrapping a repo sentinel maps to the domain code.
var APIErrorMapper = errs.NewMapper(slices.Concat(
	organizations,
	memberships,
	roles,
	subscriptions,
	users,
	defaultMapper,
), highPrio)
