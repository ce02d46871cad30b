package models

import "time"

// Booking is the authoritative reservation record. IDs are stored as
// strings because upstream sources deliver both numeric and string ids.
type Booking struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	RoomName   string    `json:"room_name"`
	GuestName  string    `json:"guest_name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     string    `json:"status"` // reserved, offer_prepared, offer_sent, invoiced, paid, checkin_done, completed
	Color      string    `json:"color"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"version"`
}
