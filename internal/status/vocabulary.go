// Package status holds the booking lifecycle vocabulary, the transition
// rules gating offer/invoice actions, and the reconciler that derives a
// single display status from a booking snapshot and its related offer,
// invoice and task records. Everything here is pure computation over
// caller-supplied snapshots; persistence stays with the caller.
package status

import "strings"

// BookingStatus is the booking lifecycle state. Stored status columns
// are plain strings; historical rows also carry free-text values from
// before the enum existed ("open", "offered", "invoiced"), so every
// entry point normalizes before comparing.
type BookingStatus string

const (
	Reserved      BookingStatus = "reserved"
	OfferPrepared BookingStatus = "offer_prepared"
	OfferSent     BookingStatus = "offer_sent"
	Invoiced      BookingStatus = "invoiced"
	Paid          BookingStatus = "paid"
	CheckInDone   BookingStatus = "checkin_done"
	Completed     BookingStatus = "completed"
)

// Legacy free-text statuses still present in stored data. Do not widen
// this list without migrating the stored rows.
const (
	LegacyOpen     BookingStatus = "open"
	LegacyOffered  BookingStatus = "offered"
	LegacyInvoiced BookingStatus = "invoiced"
)

func (s BookingStatus) String() string {
	return string(s)
}

// Normalize case-folds a raw status value so enum constants, upper-case
// spellings and legacy strings all compare equal.
func Normalize(s BookingStatus) BookingStatus {
	return BookingStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

// IsKnown reports whether the normalized value is one of the seven
// lifecycle states.
func IsKnown(s BookingStatus) bool {
	switch Normalize(s) {
	case Reserved, OfferPrepared, OfferSent, Invoiced, Paid, CheckInDone, Completed:
		return true
	default:
		return false
	}
}

// Style is an opaque presentation hint for a calendar stripe: a fill
// class plus a border style token.
type Style struct {
	Fill   string `json:"fill"`
	Border string `json:"border"`
}

var styles = map[BookingStatus]Style{
	Reserved:      {Fill: "fill-reserved", Border: "dashed"},
	OfferPrepared: {Fill: "fill-offer-prepared", Border: "solid"},
	OfferSent:     {Fill: "fill-offer-sent", Border: "solid"},
	Invoiced:      {Fill: "fill-invoiced", Border: "solid"},
	Paid:          {Fill: "fill-paid", Border: "solid"},
	CheckInDone:   {Fill: "fill-checkin", Border: "solid"},
	Completed:     {Fill: "fill-completed", Border: "solid"},
}

// defaultStyle renders legacy and unknown statuses as a generic active
// stripe instead of failing.
var defaultStyle = Style{Fill: "fill-active", Border: "solid"}

// StyleFor maps a status to its presentation style. Total: unknown and
// legacy inputs get the default style.
func StyleFor(s BookingStatus) Style {
	if style, ok := styles[Normalize(s)]; ok {
		return style
	}
	return defaultStyle
}

// BelongsInReservationsView reports whether a record with this status
// shows up in the reservations list. Accepts both enum values and the
// legacy strings; the dual acceptance is migration compatibility, not
// an oversight.
func BelongsInReservationsView(s BookingStatus) bool {
	switch Normalize(s) {
	case Reserved, OfferSent, Invoiced, LegacyOpen, LegacyOffered:
		return true
	default:
		return false
	}
}
