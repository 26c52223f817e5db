package booking

import (
	"errors"
	"time"

	"rentora/internal/domain/auth"
	"rentora/internal/domain/availability"
	"rentora/internal/domain/property"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/user"
)

type party int

const (
	partyOwner party = iota + 1
	partyRenter
	partySystemOrOwner
)

// transitions lists every permitted edge and who may take it.
var transitions = map[Status]map[Status]party{
	StatusPending: {
		StatusApproved:  partyOwner,
		StatusRejected:  partyOwner,
		StatusCancelled: partyRenter,
	},
	StatusApproved: {
		StatusCancelled: partyRenter,
		StatusCompleted: partySystemOrOwner,
	},
}

// CanTransition reports whether from -> to is an edge of the lifecycle, regardless of actor.
func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// TransitionRequest carries everything a status change is evaluated against.
// Property must be the booking's property; Index must be built from the freshest snapshot.
type TransitionRequest struct {
	Target   Status
	Actor    auth.Actor
	Property *property.Property
	Index    *availability.Index
	Now      time.Time
}

// Transition moves the booking to req.Target. Failures leave the booking untouched.
func (b *Booking) Transition(req TransitionRequest) error {
	from := b.Status
	who, ok := transitions[from][req.Target]
	if !ok || from.Terminal() {
		return &InvalidTransitionError{BookingID: b.ID, From: from, To: req.Target}
	}
	if !b.authorized(who, req.Actor, req.Property) {
		return &UnauthorizedTransitionError{BookingID: b.ID, From: from, To: req.Target, Actor: req.Actor}
	}

	now := req.Now.UTC()
	switch req.Target {
	case StatusApproved:
		if err := b.reserve(req.Index); err != nil {
			return err
		}
		b.setStatus(StatusApproved, now)
		b.Record(BookingApproved{BookingID: b.ID, PropertyID: b.PropertyID, RenterID: b.RenterID, Range: b.Range, Total: b.Total, By: req.Actor.UserID, At: now})
	case StatusRejected:
		b.setStatus(StatusRejected, now)
		b.Record(BookingRejected{BookingID: b.ID, PropertyID: b.PropertyID, RenterID: b.RenterID, By: req.Actor.UserID, At: now})
	case StatusCancelled:
		if from == StatusApproved && req.Index != nil {
			if err := req.Index.Release(string(b.PropertyID), string(b.ID)); err != nil && !errors.Is(err, availability.ErrRangeNotFound) {
				return err
			}
		}
		b.setStatus(StatusCancelled, now)
		b.Record(BookingCancelled{BookingID: b.ID, PropertyID: b.PropertyID, RenterID: b.RenterID, From: from, By: req.Actor.UserID, At: now})
	case StatusCompleted:
		if daterange.Truncate(now).Before(b.Range.End) {
			return &CompletionTooEarlyError{BookingID: b.ID, EndsOn: b.Range}
		}
		if req.Index != nil {
			_ = req.Index.Release(string(b.PropertyID), string(b.ID))
		}
		b.setStatus(StatusCompleted, now)
		b.Record(BookingCompleted{BookingID: b.ID, PropertyID: b.PropertyID, RenterID: b.RenterID, By: req.Actor.UserID, At: now})
	}
	return nil
}

func (b *Booking) Approve(actor auth.Actor, p *property.Property, index *availability.Index, now time.Time) error {
	return b.Transition(TransitionRequest{Target: StatusApproved, Actor: actor, Property: p, Index: index, Now: now})
}

func (b *Booking) Reject(actor auth.Actor, p *property.Property, now time.Time) error {
	return b.Transition(TransitionRequest{Target: StatusRejected, Actor: actor, Property: p, Now: now})
}

func (b *Booking) Cancel(actor auth.Actor, index *availability.Index, now time.Time) error {
	return b.Transition(TransitionRequest{Target: StatusCancelled, Actor: actor, Index: index, Now: now})
}

func (b *Booking) Complete(actor auth.Actor, p *property.Property, now time.Time) error {
	return b.Transition(TransitionRequest{Target: StatusCompleted, Actor: actor, Property: p, Now: now})
}

// RequiresGuard reports whether committing from -> to changes the property's confirmed occupancy.
func RequiresGuard(from, to Status) bool {
	return changesOccupancy(from, to)
}

func (b *Booking) reserve(index *availability.Index) error {
	if index == nil {
		return ErrIndexRequired
	}
	if hit, found := index.Conflict(string(b.PropertyID), b.Range, string(b.ID)); found {
		return &DateConflictError{
			PropertyID:           b.PropertyID,
			Requested:            b.Range,
			Conflicting:          hit.Range,
			ConflictingBookingID: ID(hit.Reference),
		}
	}
	return index.Reserve(availability.Entry{PropertyID: string(b.PropertyID), Reference: string(b.ID), Range: b.Range})
}

func (b *Booking) authorized(who party, actor auth.Actor, p *property.Property) bool {
	if actor.IsZero() {
		return false
	}
	switch who {
	case partyRenter:
		return actor.Is(user.RoleRenter) && actor.UserID == b.RenterID
	case partyOwner:
		return b.ownerActs(actor, p)
	case partySystemOrOwner:
		return actor.Is(user.RoleSystem) || b.ownerActs(actor, p)
	}
	return false
}

func (b *Booking) ownerActs(actor auth.Actor, p *property.Property) bool {
	return actor.Is(user.RoleOwner) && p != nil && p.ID == b.PropertyID && p.OwnedBy(actor.UserID)
}

func (b *Booking) setStatus(status Status, now time.Time) {
	b.Status = status
	b.UpdatedAt = now
}
