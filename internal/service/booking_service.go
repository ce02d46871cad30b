package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gasthof/internal/database"
	"gasthof/internal/domain"
	"gasthof/internal/events"
	"gasthof/internal/metrics"
	"gasthof/internal/models"
	"gasthof/internal/status"

	"github.com/rs/zerolog"
)

var (
	// ErrOfferNotSendable - оффер нельзя отправить из текущего статуса
	ErrOfferNotSendable = errors.New("offer cannot be sent in its current status")
	// ErrOfferNotInvoiceable - из оффера нельзя выставить счет
	ErrOfferNotInvoiceable = errors.New("offer cannot be invoiced in its current status")
)

// BookingServiceImpl derives display statuses for calendar stripes and
// drives the offer/invoice lifecycle actions.
type BookingServiceImpl struct {
	repo   domain.Repository
	cache  domain.StatusCache
	bus    domain.EventPublisher
	sync   domain.SyncWorker
	logger *zerolog.Logger
}

func NewBookingService(repo domain.Repository, cache domain.StatusCache, bus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *BookingServiceImpl {
	return &BookingServiceImpl{
		repo:   repo,
		cache:  cache,
		bus:    bus,
		sync:   syncWorker,
		logger: logger,
	}
}

// CreateBooking stores a new booking and mirrors the row into the
// bookings sheet.
func (s *BookingServiceImpl) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.Status == "" {
		booking.Status = string(status.Reserved)
	}
	if booking.Color == "" {
		booking.Color = status.StyleFor(status.BookingStatus(booking.Status)).Fill
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if s.sync != nil {
		if err := s.sync.EnqueueUpsert(ctx, booking); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("Failed to enqueue booking upsert")
		}
	}

	s.logger.Info().Str("booking_id", booking.ID).Str("property_id", booking.PropertyID).Msg("Booking created")
	return nil
}

// CreateOffer stores a new draft offer.
func (s *BookingServiceImpl) CreateOffer(ctx context.Context, offer *models.Offer) error {
	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	s.logger.Info().Str("offer_id", offer.ID).Str("property_id", offer.PropertyID).Msg("Offer created")
	return nil
}

// DeriveOfferStatus computes (or serves from cache) the display status
// for the given offer, reconciling its reservation, invoices and tasks.
func (s *BookingServiceImpl) DeriveOfferStatus(ctx context.Context, offerID string) (*models.DerivedStatus, error) {
	if s.cache != nil {
		cached, err := s.cache.GetDerived(ctx, offerID)
		if err != nil {
			s.logger.Warn().Err(err).Str("offer_id", offerID).Msg("Status cache lookup failed")
		}
		if cached != nil {
			metrics.IncCache("hit")
			return cached, nil
		}
		metrics.IncCache("miss")
	}

	offer, err := s.repo.GetOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer %s: %w", offerID, err)
	}

	reservation, err := s.loadReservation(ctx, offer)
	if err != nil {
		return nil, err
	}

	invoices, err := s.repo.GetInvoicesByOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for offer %s: %w", offerID, err)
	}

	tasks, err := s.repo.GetTasksByProperty(ctx, offer.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks for property %s: %w", offer.PropertyID, err)
	}

	derivation := status.Derive(*offer, reservation, invoices, tasks)
	metrics.IncDerivation(string(status.Normalize(derivation.Status)))
	if derivation.UsedBookingIDFallback {
		metrics.IncIDFallback()
		s.logger.Warn().
			Str("offer_id", offerID).
			Str("invoice_id", derivation.InvoiceID).
			Msg("Invoice carries no booking reference, using offer id as booking id")
	}

	style := status.StyleFor(derivation.Status)
	derived := &models.DerivedStatus{
		OfferID:         offerID,
		Status:          string(derivation.Status),
		Fill:            style.Fill,
		Border:          style.Border,
		UsedIDFallback:  derivation.UsedBookingIDFallback,
		SourceInvoiceID: derivation.InvoiceID,
		DerivedAt:       time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.SetDerived(ctx, derived); err != nil {
			s.logger.Warn().Err(err).Str("offer_id", offerID).Msg("Failed to cache derived status")
		}
	}

	return derived, nil
}

// ReservationsView returns the bookings that belong in the reservations
// list, including rows that still carry legacy status strings.
func (s *BookingServiceImpl) ReservationsView(ctx context.Context) ([]models.Booking, error) {
	bookings, err := s.repo.GetAllBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	view := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if status.BelongsInReservationsView(status.BookingStatus(b.Status)) {
			view = append(view, b)
		}
	}
	return view, nil
}

// SendOffer marks the offer as sent after checking the transition gate.
func (s *BookingServiceImpl) SendOffer(ctx context.Context, offerID string) error {
	derived, err := s.DeriveOfferStatus(ctx, offerID)
	if err != nil {
		return err
	}

	if !status.CanSendOffer(status.BookingStatus(derived.Status)) {
		return fmt.Errorf("%w: status %s", ErrOfferNotSendable, derived.Status)
	}

	if err := s.repo.UpdateOfferStatus(ctx, offerID, models.OfferStatusSent); err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}

	s.invalidate(ctx, offerID)
	s.publish(events.EventOfferSent, events.StatusEventPayload{
		OfferID:    offerID,
		FromStatus: derived.Status,
		ToStatus:   string(status.OfferSent),
	})

	s.logger.Info().Str("offer_id", offerID).Msg("Offer sent")
	return nil
}

// CreateInvoiceForOffer creates an invoice for the offer after checking
// the transition gate. The invoice id may be left empty; storage fills
// it in.
func (s *BookingServiceImpl) CreateInvoiceForOffer(ctx context.Context, offerID string, invoice *models.Invoice) error {
	derived, err := s.DeriveOfferStatus(ctx, offerID)
	if err != nil {
		return err
	}

	if !status.CanCreateInvoice(status.BookingStatus(derived.Status)) {
		return fmt.Errorf("%w: status %s", ErrOfferNotInvoiceable, derived.Status)
	}

	invoice.OfferIDSource = offerID
	if invoice.Status == "" {
		invoice.Status = models.InvoiceStatusUnpaid
	}

	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	s.invalidate(ctx, offerID)
	s.publish(events.EventInvoiceCreated, events.StatusEventPayload{
		OfferID:    offerID,
		InvoiceID:  invoice.ID,
		FromStatus: derived.Status,
		ToStatus:   string(status.Invoiced),
	})

	s.logger.Info().Str("offer_id", offerID).Str("invoice_id", invoice.ID).Msg("Invoice created")
	return nil
}

// MarkInvoicePaid transitions the invoice to paid and pushes the paid
// status onto the referenced booking.
func (s *BookingServiceImpl) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	invoice, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to load invoice %s: %w", invoiceID, err)
	}

	if err := s.repo.UpdateInvoiceStatus(ctx, invoiceID, models.InvoiceStatusPaid); err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}

	offer, err := s.repo.GetOffer(ctx, invoice.OfferIDSource)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to load offer %s: %w", invoice.OfferIDSource, err)
	}

	bookingID := invoice.BookingID
	if offer != nil {
		var fallback bool
		bookingID, fallback = status.ResolveBookingIDForInvoice(*invoice, *offer)
		if fallback {
			metrics.IncIDFallback()
			s.logger.Warn().
				Str("invoice_id", invoiceID).
				Str("offer_id", offer.ID).
				Msg("Invoice carries no booking reference, using offer id as booking id")
		}
	}

	if bookingID != "" {
		s.advanceBooking(ctx, bookingID, status.Paid)
	}

	s.invalidate(ctx, invoice.OfferIDSource)
	s.publish(events.EventInvoicePaid, events.StatusEventPayload{
		BookingID: bookingID,
		OfferID:   invoice.OfferIDSource,
		InvoiceID: invoiceID,
		ToStatus:  string(status.Paid),
	})

	s.logger.Info().Str("invoice_id", invoiceID).Str("booking_id", bookingID).Msg("Invoice marked paid")
	return nil
}

func (s *BookingServiceImpl) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	return s.repo.GetBookingsByDateRange(ctx, start, end)
}

// GetDailyBookings groups bookings by every day of their stay inside
// the requested range. The end date is checkout day, not a night.
func (s *BookingServiceImpl) GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]models.Booking, error) {
	bookings, err := s.repo.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	daily := make(map[string][]models.Booking)
	for _, b := range bookings {
		for day := b.StartDate; day.Before(b.EndDate); day = day.AddDate(0, 0, 1) {
			if day.Before(start) || day.After(end) {
				continue
			}
			key := day.Format(models.DateOnly)
			daily[key] = append(daily[key], b)
		}
	}
	return daily, nil
}

// advanceBooking pushes a lifecycle status onto the stored booking. A
// missing booking is not an error: legacy invoices may reference offers
// that never materialized a reservation row.
func (s *BookingServiceImpl) advanceBooking(ctx context.Context, bookingID string, next status.BookingStatus) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("Failed to load booking for status advance")
		}
		return
	}

	style := status.StyleFor(next)
	if err := s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, string(next), style.Fill); err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("Failed to advance booking status")
		return
	}

	if s.sync != nil {
		if err := s.sync.EnqueueStatusUpdate(ctx, booking.ID, string(next)); err != nil {
			s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("Failed to enqueue status sync")
		}
	}
}

func (s *BookingServiceImpl) loadReservation(ctx context.Context, offer *models.Offer) (*models.Booking, error) {
	id := offer.ReservationID
	if id == "" {
		// Offers created straight from the calendar reuse their own id
		// as the booking id.
		id = offer.ID
	}

	reservation, err := s.repo.GetBooking(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation %s: %w", id, err)
	}
	return reservation, nil
}

func (s *BookingServiceImpl) invalidate(ctx context.Context, offerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, offerID); err != nil {
		s.logger.Warn().Err(err).Str("offer_id", offerID).Msg("Failed to invalidate status cache")
	}
}

func (s *BookingServiceImpl) publish(eventType string, payload events.StatusEventPayload) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
