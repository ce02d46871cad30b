package status

import (
	"strings"
	"time"

	"gasthof/internal/models"

	"github.com/rs/zerolog"
)

// Derivation is the result of reconciling an offer against its related
// records. UsedBookingIDFallback marks the heuristic path where the
// invoice carried no booking reference and the offer id was guessed
// instead; callers should surface that.
type Derivation struct {
	Status                BookingStatus
	InvoiceID             string
	UsedBookingIDFallback bool
}

// DeriveDisplayStatus computes the single authoritative display status
// for a calendar stripe representing an offer/booking pair.
func DeriveDisplayStatus(offer models.Offer, reservation *models.Booking, invoices []models.Invoice, tasks []models.Task) BookingStatus {
	return Derive(offer, reservation, invoices, tasks).Status
}

// Derive walks the reconciliation cascade. The order is load-bearing:
// reservation override, then invoice existence, then invoice paid-ness,
// then verified move-out, then verified move-in, then paid. Checking
// move-in before move-out would report a fully completed stay as merely
// checked in, because both tasks are verified by then.
func Derive(offer models.Offer, reservation *models.Booking, invoices []models.Invoice, tasks []models.Task) Derivation {
	// A reservation record with its own status always wins: it may have
	// been advanced by a path this reconciler does not see, e.g. a
	// manual admin override.
	if reservation != nil && strings.TrimSpace(reservation.Status) != "" {
		return Derivation{Status: BookingStatus(reservation.Status)}
	}

	invoice := latestInvoiceForOffer(invoices, offer.ID)
	if invoice == nil {
		if strings.EqualFold(strings.TrimSpace(offer.Status), models.OfferStatusSent) {
			return Derivation{Status: OfferSent}
		}
		return Derivation{Status: OfferPrepared}
	}

	if !strings.EqualFold(strings.TrimSpace(invoice.Status), models.InvoiceStatusPaid) {
		return Derivation{Status: Invoiced, InvoiceID: invoice.ID}
	}

	bookingID, fallback := ResolveBookingIDForInvoice(*invoice, offer)
	out := Derivation{Status: Paid, InvoiceID: invoice.ID, UsedBookingIDFallback: fallback}

	start, end, ok := models.ParsePeriod(offer.Period)
	if !ok {
		// No usable date range means no task can be matched; the
		// cascade bottoms out at paid.
		return out
	}

	if hasVerifiedMoveTask(tasks, models.TaskTypeMoveOut, offer.PropertyID, end, bookingID) {
		out.Status = Completed
		return out
	}
	if hasVerifiedMoveTask(tasks, models.TaskTypeMoveIn, offer.PropertyID, start, bookingID) {
		out.Status = CheckInDone
		return out
	}
	return out
}

// ResolveBookingIDForInvoice returns the booking id an invoice points
// at. Legacy invoices lack the booking reference; for those the offer
// id doubles as the booking id. The bool reports the fallback path so
// callers can log and count it.
func ResolveBookingIDForInvoice(invoice models.Invoice, offer models.Offer) (string, bool) {
	if strings.TrimSpace(invoice.BookingID) != "" {
		return invoice.BookingID, false
	}
	return offer.ID, true
}

// NextStatusOnTaskVerified maps a verified move task to the booking
// status it advances to. The second return is false when the task does
// not change the lifecycle at all: wrong type, or not yet verified.
func NextStatusOnTaskVerified(task models.Task) (BookingStatus, bool) {
	if !task.IsVerified() {
		return "", false
	}
	switch {
	case strings.EqualFold(strings.TrimSpace(task.Type), models.TaskTypeMoveIn):
		return CheckInDone, true
	case strings.EqualFold(strings.TrimSpace(task.Type), models.TaskTypeMoveOut):
		return Completed, true
	default:
		return "", false
	}
}

// ApplyOptions carries the injected side channels for ApplyStatus: an
// optional logger and an optional sync hook invoked with the updated
// record.
type ApplyOptions struct {
	Logger *zerolog.Logger
	OnSync func(models.Booking)
}

// ApplyStatus returns a copy of the collection with the matching
// booking's status and derived color updated. Ids are compared via
// string coercion, so numeric and string representations of the same
// id match. An id that matches nothing is a silent no-op; applying the
// same status twice yields the same collection state.
func ApplyStatus(id interface{}, newStatus BookingStatus, bookings []models.Booking, opts ApplyOptions) []models.Booking {
	out := make([]models.Booking, len(bookings))
	copy(out, bookings)

	target := CoerceID(id)
	for i := range out {
		if CoerceID(out[i].ID) != target {
			continue
		}

		out[i].Status = string(newStatus)
		out[i].Color = StyleFor(newStatus).Fill

		if opts.Logger != nil {
			opts.Logger.Info().
				Str("booking_id", out[i].ID).
				Str("status", string(newStatus)).
				Msg("booking status applied")
		}
		if opts.OnSync != nil {
			opts.OnSync(out[i])
		}
	}
	return out
}

// latestInvoiceForOffer picks the invoice referencing the offer. When
// several exist the newest by created_at wins.
func latestInvoiceForOffer(invoices []models.Invoice, offerID string) *models.Invoice {
	var latest *models.Invoice
	for i := range invoices {
		if !SameID(invoices[i].OfferIDSource, offerID) {
			continue
		}
		if latest == nil || invoices[i].CreatedAt.After(latest.CreatedAt) {
			latest = &invoices[i]
		}
	}
	return latest
}

func hasVerifiedMoveTask(tasks []models.Task, taskType, propertyID string, day time.Time, bookingID string) bool {
	want := day.Format(models.DateOnly)
	for i := range tasks {
		t := &tasks[i]
		if !strings.EqualFold(strings.TrimSpace(t.Type), taskType) {
			continue
		}
		if !SameID(t.PropertyID, propertyID) {
			continue
		}
		if !SameID(t.BookingID, bookingID) {
			continue
		}
		if t.Date.Format(models.DateOnly) != want {
			continue
		}
		if t.IsVerified() {
			return true
		}
	}
	return false
}
