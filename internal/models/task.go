package models

import (
	"strings"
	"time"
)

// Task is a facility calendar event (move-in, move-out, cleaning).
// A verified move task is what advances the booking lifecycle.
type Task struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`   // einzug, auszug, reinigung
	Status     string    `json:"status"` // open, assigned, done_by_worker, verified, archived
	BookingID  string    `json:"booking_id"`
	PropertyID string    `json:"property_id"`
	Date       time.Time `json:"date"`
	AssignedTo string    `json:"assigned_to"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsVerified reports whether the task has been signed off by an admin.
// Stored status values are matched case-insensitively, like booking
// statuses.
func (t *Task) IsVerified() bool {
	return strings.EqualFold(strings.TrimSpace(t.Status), TaskStatusVerified)
}
