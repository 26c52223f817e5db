package dto

import (
	"time"

	"rentora/internal/app/policies"
)

type Notification struct {
	Template  string            `json:"template"`
	BookingID string            `json:"booking_id"`
	Data      map[string]string `json:"data,omitempty"`
	SentAt    time.Time         `json:"sent_at"`
}

type NotificationList struct {
	Items []Notification `json:"items"`
	Total int            `json:"total"`
}

func MapNotifications(items []policies.Notification) NotificationList {
	out := NotificationList{Items: make([]Notification, 0, len(items))}
	for _, n := range items {
		out.Items = append(out.Items, Notification{
			Template:  n.Template,
			BookingID: n.BookingID,
			Data:      n.Data,
			SentAt:    n.SentAt,
		})
	}
	out.Total = len(out.Items)
	return out
}
