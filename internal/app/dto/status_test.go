package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainbooking "rentora/internal/domain/booking"
)

func TestEveryStatusHasPresentation(t *testing.T) {
	catalog := StatusCatalog()
	assert.Len(t, catalog, len(domainbooking.Statuses))
	for i, s := range domainbooking.Statuses {
		p := PresentStatus(s)
		assert.Equal(t, string(s), p.Code)
		assert.NotEqual(t, string(s), p.Label, "status %s has no label", s)
		assert.Equal(t, p, catalog[i])
	}
}

func TestUnknownStatusFallsBack(t *testing.T) {
	p := PresentStatus("ON_HOLD")
	assert.Equal(t, "ON_HOLD", p.Label)
	assert.Equal(t, "neutral", p.Tone)
}
