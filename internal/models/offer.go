package models

import (
	"strings"
	"time"
)

// Offer is a priced proposal for a stay. ReservationID is optional: an
// offer without a reservation back-reference is rendered on the calendar
// as its own pseudo-booking.
type Offer struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	PropertyID    string    `json:"property_id"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email"`
	Period        string    `json:"period"` // "start to end" formatted range
	Status        string    `json:"status"` // draft, sent
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var periodSeparators = []string{" to ", " bis ", " - "}

var periodLayouts = []string{DateOnly, "02.01.2006"}

// ParsePeriod splits an offer period string into its start and end days.
// Historical data carries both "2025-07-01 to 2025-07-08" and
// "01.07.2025 bis 08.07.2025" forms.
func ParsePeriod(period string) (start, end time.Time, ok bool) {
	period = strings.TrimSpace(period)
	if period == "" {
		return time.Time{}, time.Time{}, false
	}

	for _, sep := range periodSeparators {
		parts := strings.SplitN(period, sep, 2)
		if len(parts) != 2 {
			continue
		}
		start, okStart := parseDay(parts[0])
		end, okEnd := parseDay(parts[1])
		if okStart && okEnd {
			return start, end, true
		}
	}

	// Single date: treat as a one-day period.
	if day, okDay := parseDay(period); okDay {
		return day, day, true
	}

	return time.Time{}, time.Time{}, false
}

func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PeriodString formats a start/end pair the way offers store it.
func PeriodString(start, end time.Time) string {
	return start.Format(DateOnly) + " to " + end.Format(DateOnly)
}
