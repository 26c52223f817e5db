package booking

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Occupying statuses are considered when checking for scheduling conflicts.
func (s Status) Occupying() bool {
	return s == StatusPending || s == StatusApproved
}

// Confirmed statuses hold a place in the availability index.
func (s Status) Confirmed() bool {
	return s == StatusApproved
}

// Billable statuses count towards revenue.
func (s Status) Billable() bool {
	return s == StatusApproved || s == StatusCompleted
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// changesOccupancy reports whether moving from -> to adds or removes a confirmed range.
func changesOccupancy(from, to Status) bool {
	return from.Confirmed() != to.Confirmed()
}
