package model

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
)

var (
	ErrInvalidOrganizationStatus     = errors.New("organization status is not valid")
	ErrInvalidOrganizationTransition = errors.New("organization status transition is not allowed")
)

// OrganizationStatus represents the lifecycle status of an organization.
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusSuspended OrganizationStatus = "suspended"
	OrganizationStatusInactive  OrganizationStatus = "inactive"
)

// OrganizationTransition is an administrative status change.
type OrganizationTransition string

const (
	TransitionSuspend    OrganizationTransition = "suspend"
	TransitionReactivate OrganizationTransition = "reactivate"
	TransitionDeactivate OrganizationTransition = "deactivate"
)

var validOrganizationStatuses = map[OrganizationStatus]struct{}{
	OrganizationStatusActive:    {},
	OrganizationStatusSuspended: {},
	OrganizationStatusInactive:  {},
}

// Validate validates the given status of the organization.
// Returns an error if the status is invalid.
func (s OrganizationStatus) Validate() error {
	if _, ok := validOrganizationStatuses[s]; !ok {
		return ErrInvalidOrganizationStatus
	}

	return nil
}

func (s OrganizationStatus) String() string {
	return string(s)
}

// newStatusMachine builds the state machine guarding status transitions.
// Inactive is terminal.
func newStatusMachine(current OrganizationStatus) *fsm.FSM {
	return fsm.NewFSM(
		current.String(),
		fsm.Events{
			{
				Name: string(TransitionSuspend),
				Src:  []string{OrganizationStatusActive.String()},
				Dst:  OrganizationStatusSuspended.String(),
			},
			{
				Name: string(TransitionReactivate),
				Src:  []string{OrganizationStatusSuspended.String()},
				Dst:  OrganizationStatusActive.String(),
			},
			{
				Name: string(TransitionDeactivate),
				Src: []string{
					OrganizationStatusActive.String(),
					OrganizationStatusSuspended.String(),
				},
				Dst: OrganizationStatusInactive.String(),
			},
		},
		fsm.Callbacks{},
	)
}

// Transition applies an administrative transition to the organization status,
// returning ErrInvalidOrganizationTransition when the machine rejects it.
func (o *Organization) Transition(ctx context.Context, t OrganizationTransition) error {
	machine := newStatusMachine(o.Status)

	err := machine.Event(ctx, string(t))
	if err != nil {
		return errs.Wrap(ErrInvalidOrganizationTransition, err)
	}

	o.Status = OrganizationStatus(machine.Current())

	return nil
}
