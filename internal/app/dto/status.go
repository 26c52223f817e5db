package dto

import domainbooking "rentora/internal/domain/booking"

// StatusPresentation is how a booking status is shown to people.
type StatusPresentation struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

var statusTable = map[domainbooking.Status]StatusPresentation{
	domainbooking.StatusPending:   {Code: "PENDING", Label: "Awaiting owner", Tone: "warning"},
	domainbooking.StatusApproved:  {Code: "APPROVED", Label: "Confirmed", Tone: "success"},
	domainbooking.StatusRejected:  {Code: "REJECTED", Label: "Declined", Tone: "danger"},
	domainbooking.StatusCancelled: {Code: "CANCELLED", Label: "Cancelled", Tone: "neutral"},
	domainbooking.StatusCompleted: {Code: "COMPLETED", Label: "Stay completed", Tone: "info"},
}

// PresentStatus is the only place statuses are mapped to labels.
func PresentStatus(status domainbooking.Status) StatusPresentation {
	if p, ok := statusTable[status]; ok {
		return p
	}
	return StatusPresentation{Code: string(status), Label: string(status), Tone: "neutral"}
}

// StatusCatalog lists every status in lifecycle order.
func StatusCatalog() []StatusPresentation {
	out := make([]StatusPresentation, 0, len(domainbooking.Statuses))
	for _, s := range domainbooking.Statuses {
		out = append(out, PresentStatus(s))
	}
	return out
}
