package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ISODate is the wire layout for calendar dates.
const ISODate = "2006-01-02"

const day = 24 * time.Hour

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
	ErrInvalidDate  = errors.New("daterange: invalid calendar date")
)

// DateRange represents a half-open interval [Start, End) over calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// New builds a range from two dates, dropping any time-of-day component.
func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Truncate(start), End: Truncate(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two ISO dates.
func Parse(start, end string) (DateRange, error) {
	dr, err := ParseUnordered(start, end)
	if err != nil {
		return DateRange{}, err
	}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// ParseUnordered parses both dates without checking their order; Validate does that.
func ParseUnordered(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: Truncate(s), End: Truncate(e)}, nil
}

// MustParse is meant for fixtures and tests.
func MustParse(start, end string) DateRange {
	dr, err := Parse(start, end)
	if err != nil {
		panic(err)
	}
	return dr
}

func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(ISODate, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t.UTC(), nil
}

// Truncate returns midnight UTC of the calendar date t falls on.
func Truncate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.End.IsZero() || dr.Start.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// DurationDays is the number of days covered, rounded up.
func (dr DateRange) DurationDays() int {
	d := dr.End.Sub(dr.Start)
	if d <= 0 {
		return 0
	}
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

// BillingUnits is the number of unitDays-long periods billed for the stay, never less than one.
func (dr DateRange) BillingUnits(unitDays int) int {
	if unitDays <= 0 {
		unitDays = 1
	}
	days := dr.DurationDays()
	units := (days + unitDays - 1) / unitDays
	if units < 1 {
		return 1
	}
	return units
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.Start.Before(dr.Start) && !other.End.After(dr.End)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return !t.Before(dr.Start) && t.Before(dr.End)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.End.Equal(other.Start) || dr.Start.Equal(other.End)
}

func (dr DateRange) Merge(other DateRange) (DateRange, bool) {
	if !(dr.Overlaps(other) || dr.Adjacent(other)) {
		return DateRange{}, false
	}
	start := dr.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := dr.End
	if other.End.After(end) {
		end = other.End
	}
	return DateRange{Start: start, End: end}, true
}

func (dr DateRange) String() string {
	return "[" + dr.Start.Format(ISODate) + ", " + dr.End.Format(ISODate) + ")"
}
