package claim

import (
	"fmt"
	"time"

	xerrors "insurance-service/internal/pkg/errors"
)

// validTransitions lists the moves the back office can make. Draft, Under
// Review, Info Required, Settled and Closed have no inbound edge here; they
// are only ever set by an administrative path outside this service.
var validTransitions = map[Status]map[Status]bool{
	StatusDraft:        {},
	StatusSubmitted:    {StatusApproved: true, StatusRejected: true},
	StatusUnderReview:  {},
	StatusInfoRequired: {},
	StatusApproved:     {},
	StatusRejected:     {},
	StatusSettled:      {},
	StatusClosed:       {},
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// TransitionError describes a refused status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move claim from %s to %s", e.From.Label(), e.To.Label())
}

func (e *TransitionError) Unwrap() error { return xerrors.ErrInvalidTransition }

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to Status) bool {
	return validTransitions[from][to]
}

// AvailableActions lists what a reviewer may do to a claim in status s.
func AvailableActions(s Status) []Action {
	actions := make([]Action, 0, 2)
	if CanTransition(s, StatusApproved) {
		actions = append(actions, ActionApprove)
	}
	if CanTransition(s, StatusRejected) {
		actions = append(actions, ActionReject)
	}
	return actions
}

// Decision is a requested status change.
type Decision struct {
	To             Status
	ApprovedAmount *float64
	Note           string
}

// Apply moves c to d.To, attaching the approved amount on approval and
// returning the timeline entry to persist. c is left untouched on error.
func Apply(c *Claim, d Decision, now time.Time) (*TimelineEntry, error) {
	if !CanTransition(c.Status, d.To) {
		return nil, &TransitionError{From: c.Status, To: d.To}
	}

	var approved *float64
	switch d.To {
	case StatusApproved:
		amount := c.RequestedAmount
		if d.ApprovedAmount != nil {
			amount = *d.ApprovedAmount
		}
		if amount < 0 {
			return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "approved amount must not be negative")
		}
		approved = &amount
	default:
		if d.ApprovedAmount != nil {
			return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "approved amount is only accepted on approval")
		}
	}

	c.Status = d.To
	if approved != nil {
		c.ApprovedAmount = approved
	}
	c.UpdatedAt = now

	entry := TimelineEntry{ClaimID: c.ID, Status: d.To, Note: d.Note, CreatedAt: now}
	c.Timeline = append(c.Timeline, entry)
	return &entry, nil
}

// Open starts a new claim in Submitted with its first timeline entry.
func Open(c *Claim, now time.Time) (*TimelineEntry, error) {
	if c.RequestedAmount < 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "requested amount must not be negative")
	}
	c.Status = StatusSubmitted
	c.ApprovedAmount = nil
	c.CreatedAt = now
	c.UpdatedAt = now

	entry := TimelineEntry{ClaimID: c.ID, Status: StatusSubmitted, Note: "Claim submitted", CreatedAt: now}
	c.Timeline = []TimelineEntry{entry}
	return &entry, nil
}
