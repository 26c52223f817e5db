package property

import (
	"strings"

	"rentora/internal/domain/user"
)

type SearchParams struct {
	OwnerID       user.ID
	City          string
	MinRentAmount int64
	MaxRentAmount int64
	OnlyAvailable bool
	Limit         int
	Offset        int
}

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

func (p SearchParams) Normalized() SearchParams {
	p.City = strings.ToLower(strings.TrimSpace(p.City))
	if p.MinRentAmount < 0 {
		p.MinRentAmount = 0
	}
	if p.MaxRentAmount < 0 {
		p.MaxRentAmount = 0
	}
	if p.MaxRentAmount > 0 && p.MinRentAmount > p.MaxRentAmount {
		p.MinRentAmount, p.MaxRentAmount = p.MaxRentAmount, p.MinRentAmount
	}
	if p.Limit <= 0 {
		p.Limit = defaultSearchLimit
	}
	if p.Limit > maxSearchLimit {
		p.Limit = maxSearchLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Matches applies every filter except paging.
func (p SearchParams) Matches(prop *Property) bool {
	if prop == nil {
		return false
	}
	if p.OwnerID != "" && prop.OwnerID != p.OwnerID {
		return false
	}
	if p.OnlyAvailable && !prop.IsAvailable {
		return false
	}
	if p.City != "" && !strings.EqualFold(prop.Address.City, p.City) {
		return false
	}
	if p.MinRentAmount > 0 && prop.Rent.Amount < p.MinRentAmount {
		return false
	}
	if p.MaxRentAmount > 0 && prop.Rent.Amount > p.MaxRentAmount {
		return false
	}
	return true
}
