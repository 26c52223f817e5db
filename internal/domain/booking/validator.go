package booking

import (
	"time"

	"rentora/internal/domain/availability"
	"rentora/internal/domain/property"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/money"
)

const (
	DefaultMinimumStayDays = 30
	// BillingUnitDays is the one billing period: rent is monthly, partial months bill as whole ones.
	BillingUnitDays = 30
)

// Policy holds the stay rules applied to every request.
type Policy struct {
	MinimumStayDays int
}

func DefaultPolicy() Policy {
	return Policy{MinimumStayDays: DefaultMinimumStayDays}
}

func (p Policy) normalized() Policy {
	if p.MinimumStayDays < 1 {
		p.MinimumStayDays = 1
	}
	return p
}

// Acceptance is the validator's approval of a request. It does not create anything by itself.
type Acceptance struct {
	PropertyID   property.ID
	Range        daterange.DateRange
	DurationDays int
	BillingUnits int
	Total        money.Money
	CheckedAt    time.Time
}

type Validator struct {
	Policy Policy
	Clock  clock.Clock
}

func NewValidator(policy Policy, c clock.Clock) Validator {
	if c == nil {
		c = clock.System{}
	}
	return Validator{Policy: policy.normalized(), Clock: c}
}

// Validate checks a request for r at p against existing, the property's current bookings.
// Checks run in order: listing toggle, range, minimum stay, conflicts with APPROVED bookings.
func (v Validator) Validate(p *property.Property, r daterange.DateRange, existing []*Booking) (Acceptance, error) {
	if p == nil {
		return Acceptance{}, property.ErrNotFound
	}
	if !p.IsAvailable {
		return Acceptance{}, &PropertyUnavailableError{PropertyID: p.ID}
	}

	c := v.Clock
	if c == nil {
		c = clock.System{}
	}
	if err := r.Validate(); err != nil {
		return Acceptance{}, &InvalidRangeError{Range: r}
	}
	if r.Start.Before(clock.Today(c)) {
		return Acceptance{}, &InvalidRangeError{Range: r, Cause: ErrStartInPast}
	}

	policy := v.Policy.normalized()
	days := r.DurationDays()
	if days < policy.MinimumStayDays {
		return Acceptance{}, &MinimumStayError{PropertyID: p.ID, RequestedDays: days, MinimumDays: policy.MinimumStayDays}
	}

	index := BuildIndex(ByProperty(existing, p.ID))
	if hit, found := index.Conflict(string(p.ID), r, ""); found {
		return Acceptance{}, &DateConflictError{
			PropertyID:           p.ID,
			Requested:            r,
			Conflicting:          hit.Range,
			ConflictingBookingID: ID(hit.Reference),
		}
	}

	units := r.BillingUnits(BillingUnitDays)
	return Acceptance{
		PropertyID:   p.ID,
		Range:        r,
		DurationDays: days,
		BillingUnits: units,
		Total:        p.Rent.Multiply(int64(units)),
		CheckedAt:    c.Now().UTC(),
	}, nil
}

// BuildIndex derives the availability index from the APPROVED bookings in the collection.
func BuildIndex(bookings []*Booking) *availability.Index {
	entries := make([]availability.Entry, 0, len(bookings))
	for _, b := range bookings {
		if b == nil || !b.Status.Confirmed() {
			continue
		}
		entries = append(entries, availability.Entry{
			PropertyID: string(b.PropertyID),
			Reference:  string(b.ID),
			Range:      b.Range,
		})
	}
	return availability.Build(entries)
}
