package status

import (
	"io"
	"testing"
	"time"

	"gasthof/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testOffer(status string) models.Offer {
	return models.Offer{
		ID:         "offer-1",
		PropertyID: "prop-9",
		Period:     "2025-07-01 to 2025-07-08",
		Status:     status,
		CreatedAt:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func moveTask(taskType, day, bookingID, taskStatus string) models.Task {
	date, _ := time.Parse(models.DateOnly, day)
	return models.Task{
		ID:         "task-" + taskType,
		Type:       taskType,
		Status:     taskStatus,
		BookingID:  bookingID,
		PropertyID: "prop-9",
		Date:       date,
	}
}

func TestDeriveDisplayStatus(t *testing.T) {
	t.Run("ReservationOverrideWins", func(t *testing.T) {
		// Even with a paid invoice and a verified move-out task, the
		// reservation's own status is authoritative.
		reservation := &models.Booking{ID: "offer-1", Status: string(CheckInDone)}
		invoices := []models.Invoice{{
			ID: "inv-1", OfferIDSource: "offer-1", BookingID: "offer-1",
			Status: models.InvoiceStatusPaid,
		}}
		tasks := []models.Task{
			moveTask(models.TaskTypeMoveOut, "2025-07-08", "offer-1", models.TaskStatusVerified),
		}

		got := DeriveDisplayStatus(testOffer(models.OfferStatusSent), reservation, invoices, tasks)
		assert.Equal(t, CheckInDone, got)
	})

	t.Run("EmptyReservationStatusDoesNotOverride", func(t *testing.T) {
		reservation := &models.Booking{ID: "offer-1", Status: "  "}
		got := DeriveDisplayStatus(testOffer(models.OfferStatusSent), reservation, nil, nil)
		assert.Equal(t, OfferSent, got)
	})

	t.Run("NoInvoiceSentOffer", func(t *testing.T) {
		got := DeriveDisplayStatus(testOffer(models.OfferStatusSent), nil, nil, nil)
		assert.Equal(t, OfferSent, got)
	})

	t.Run("NoInvoiceDraftOffer", func(t *testing.T) {
		got := DeriveDisplayStatus(testOffer(models.OfferStatusDraft), nil, nil, nil)
		assert.Equal(t, OfferPrepared, got)

		// Any non-sent offer status counts as prepared.
		got = DeriveDisplayStatus(testOffer("weird-legacy-value"), nil, nil, nil)
		assert.Equal(t, OfferPrepared, got)
	})

	t.Run("UnpaidInvoice", func(t *testing.T) {
		invoices := []models.Invoice{{
			ID: "inv-1", OfferIDSource: "offer-1", Status: models.InvoiceStatusUnpaid,
		}}
		got := DeriveDisplayStatus(testOffer(models.OfferStatusSent), nil, invoices, nil)
		assert.Equal(t, Invoiced, got)
	})

	t.Run("PaidInvoiceNoTasks", func(t *testing.T) {
		invoices := []models.Invoice{{
			ID: "inv-1", OfferIDSource: "offer-1", BookingID: "offer-1",
			Status: models.InvoiceStatusPaid,
		}}
		got := DeriveDisplayStatus(testOffer(models.OfferStatusSent), nil, invoices, nil)
		assert.Equal(t, Paid, got)
	})

	t.Run("VerifiedMoveInOnly", func(t *testing.T) {
		invoices := []models.Invoice{{
			ID: "inv-1", OfferIDSource: "offer-1", BookingID: "offer-1",
			Status: models.InvoiceStatusPaid,
		}}
		tasks := []models.Task{
			moveTask(models.TaskTypeMoveIn, "2025-07-01", "offer-1", models.TaskStatusVerified),
			moveTask(models.TaskTypeMoveOut, "2025-07-08", "offer-1", models.TaskStatusAssigned),
		}
		got := DeriveDisplayStatus(testOffer(models.OfferStatusSent), nil, invoices, tasks)
		assert.Equal(t, CheckInDone, got)
	})

	t.Run("BothMoveTasksVerified", func(t *testing.T) {
		// Move-out is checked first; a completed stay has both tasks
		// verified and must not read as merely checked in.
		invoices := []models.Invoice{{
			ID: "inv-1", OfferIDSource: "offer-1", BookingID: "offer-1",
			Status: models.InvoiceStatusPaid,
		}}
		tasks := []models.Task{
			moveTask(models.TaskTypeMoveIn, "2025-07-01", "offer-1", models.TaskStatusVerified),
			moveTask(models.TaskTypeMoveOut, "2025-07-08", "offer-1", models.TaskStatusVerified),
		}
		got := DeriveDisplayStatus(testOffer(models.OfferStatusSent), nil, invoices, tasks)
		assert.Equal(t, Completed, got)
	})

	t.Run("TaskForOtherBookingIgnored", func(t *testing.T) {
		invoices := []models.Invoice{{
			ID: "inv-1", OfferIDSource: "offer-1", BookingID: "offer-1",
			Status: models.InvoiceStatusPaid,
		}}
		tasks := []models.Task{
			moveTask(models.TaskTypeMoveOut, "2025-07-08", "someone-else", models.TaskStatusVerified),
		}
		got := DeriveDisplayStatus(testOffer(models.OfferStatusSent), nil, invoices, tasks)
		assert.Equal(t, Paid, got)
	})

	t.Run("BookingIDFallbackThroughOfferID", func(t *testing.T) {
		// Invoice without a booking reference: tasks keyed by the offer
		// id must still match, and the derivation flags the heuristic.
		invoices := []models.Invoice{{
			ID: "inv-1", OfferIDSource: "offer-1", Status: models.InvoiceStatusPaid,
		}}
		tasks := []models.Task{
			moveTask(models.TaskTypeMoveIn, "2025-07-01", "offer-1", models.TaskStatusVerified),
		}

		d := Derive(testOffer(models.OfferStatusSent), nil, invoices, tasks)
		assert.Equal(t, CheckInDone, d.Status)
		assert.True(t, d.UsedBookingIDFallback)
	})

	t.Run("LatestInvoiceWins", func(t *testing.T) {
		older := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		newer := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
		invoices := []models.Invoice{
			{ID: "inv-old", OfferIDSource: "offer-1", Status: models.InvoiceStatusPaid, CreatedAt: older},
			{ID: "inv-new", OfferIDSource: "offer-1", Status: models.InvoiceStatusUnpaid, CreatedAt: newer},
		}
		d := Derive(testOffer(models.OfferStatusSent), nil, invoices, nil)
		assert.Equal(t, Invoiced, d.Status)
		assert.Equal(t, "inv-new", d.InvoiceID)
	})

	t.Run("MixedCaseVerifiedStatusCounts", func(t *testing.T) {
		// Task rows written by older tooling carry "Verified"; the
		// derivation must treat them exactly like the lower-case form,
		// or a stay advances on verify but still derives as paid.
		invoices := []models.Invoice{{
			ID: "inv-1", OfferIDSource: "offer-1", BookingID: "offer-1",
			Status: models.InvoiceStatusPaid,
		}}
		tasks := []models.Task{
			moveTask(models.TaskTypeMoveOut, "2025-07-08", "offer-1", "Verified"),
		}
		got := DeriveDisplayStatus(testOffer(models.OfferStatusSent), nil, invoices, tasks)
		assert.Equal(t, Completed, got)

		next, ok := NextStatusOnTaskVerified(tasks[0])
		assert.True(t, ok)
		assert.Equal(t, Completed, next)
	})

	t.Run("UnparseablePeriodStopsAtPaid", func(t *testing.T) {
		offer := testOffer(models.OfferStatusSent)
		offer.Period = "tbd"
		invoices := []models.Invoice{{
			ID: "inv-1", OfferIDSource: "offer-1", BookingID: "offer-1",
			Status: models.InvoiceStatusPaid,
		}}
		tasks := []models.Task{
			moveTask(models.TaskTypeMoveOut, "2025-07-08", "offer-1", models.TaskStatusVerified),
		}
		got := DeriveDisplayStatus(offer, nil, invoices, tasks)
		assert.Equal(t, Paid, got)
	})
}

func TestNextStatusOnTaskVerified(t *testing.T) {
	t.Run("MoveIn", func(t *testing.T) {
		next, ok := NextStatusOnTaskVerified(moveTask(models.TaskTypeMoveIn, "2025-07-01", "b1", models.TaskStatusVerified))
		assert.True(t, ok)
		assert.Equal(t, CheckInDone, next)
	})

	t.Run("MoveOut", func(t *testing.T) {
		next, ok := NextStatusOnTaskVerified(moveTask(models.TaskTypeMoveOut, "2025-07-08", "b1", models.TaskStatusVerified))
		assert.True(t, ok)
		assert.Equal(t, Completed, next)
	})

	t.Run("NotYetVerified", func(t *testing.T) {
		for _, s := range []string{models.TaskStatusOpen, models.TaskStatusAssigned, models.TaskStatusDoneByWorker, models.TaskStatusArchived} {
			_, ok := NextStatusOnTaskVerified(moveTask(models.TaskTypeMoveIn, "2025-07-01", "b1", s))
			assert.False(t, ok, "status %s", s)
		}
	})

	t.Run("OtherTaskType", func(t *testing.T) {
		_, ok := NextStatusOnTaskVerified(moveTask(models.TaskTypeCleaning, "2025-07-02", "b1", models.TaskStatusVerified))
		assert.False(t, ok)
	})

	t.Run("CaseInsensitiveType", func(t *testing.T) {
		task := moveTask("Auszug", "2025-07-08", "b1", models.TaskStatusVerified)
		next, ok := NextStatusOnTaskVerified(task)
		assert.True(t, ok)
		assert.Equal(t, Completed, next)
	})
}

func TestApplyStatus(t *testing.T) {
	logger := zerolog.New(io.Discard)

	collection := []models.Booking{
		{ID: "41", Status: string(Reserved)},
		{ID: "42", Status: string(Reserved)},
	}

	t.Run("NumericIDMatchesStringRecord", func(t *testing.T) {
		got := ApplyStatus(42, Paid, collection, ApplyOptions{Logger: &logger})
		assert.Equal(t, string(Paid), got[1].Status)
		assert.Equal(t, StyleFor(Paid).Fill, got[1].Color)
		// Untouched record and the input collection stay as they were.
		assert.Equal(t, string(Reserved), got[0].Status)
		assert.Equal(t, string(Reserved), collection[1].Status)
	})

	t.Run("UnknownIDIsSilentNoOp", func(t *testing.T) {
		got := ApplyStatus("missing", Paid, collection, ApplyOptions{})
		assert.Equal(t, collection, got)
		assert.NotSame(t, &collection[0], &got[0])
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := ApplyStatus("42", Paid, collection, ApplyOptions{})
		twice := ApplyStatus("42", Paid, once, ApplyOptions{})
		assert.Equal(t, once, twice)
	})

	t.Run("SyncHookReceivesUpdatedRecord", func(t *testing.T) {
		var synced []models.Booking
		opts := ApplyOptions{OnSync: func(b models.Booking) { synced = append(synced, b) }}
		ApplyStatus("41", Completed, collection, opts)
		assert.Len(t, synced, 1)
		assert.Equal(t, "41", synced[0].ID)
		assert.Equal(t, string(Completed), synced[0].Status)
	})

	t.Run("EmptyCollection", func(t *testing.T) {
		got := ApplyStatus(1, Paid, nil, ApplyOptions{})
		assert.Empty(t, got)
	})
}
