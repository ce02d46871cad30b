package domain

import (
	"context"
	"time"

	"gasthof/internal/models"
)

type Repository interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id string, bookingStatus, color string) error
	UpdateBookingStatusWithVersion(ctx context.Context, id string, version int64, bookingStatus, color string) error
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	GetAllBookings(ctx context.Context) ([]models.Booking, error)

	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	CreateOffer(ctx context.Context, offer *models.Offer) error
	UpdateOfferStatus(ctx context.Context, id string, offerStatus string) error
	GetAllOffers(ctx context.Context) ([]models.Offer, error)

	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	UpdateInvoiceStatus(ctx context.Context, id string, invoiceStatus string) error
	GetInvoicesByOffer(ctx context.Context, offerID string) ([]models.Invoice, error)

	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTaskStatus(ctx context.Context, id string, taskStatus string) error
	GetTasksByProperty(ctx context.Context, propertyID string) ([]models.Task, error)
	GetTasksByBooking(ctx context.Context, bookingID string) ([]models.Task, error)
}

// StatusCache stores derived display statuses keyed by offer id and
// doubles as the API rate-limit backend.
type StatusCache interface {
	GetDerived(ctx context.Context, offerID string) (*models.DerivedStatus, error)
	SetDerived(ctx context.Context, derived *models.DerivedStatus) error
	Invalidate(ctx context.Context, offerID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SyncWorker interface {
	EnqueueStatusUpdate(ctx context.Context, bookingID string, bookingStatus string) error
	EnqueueUpsert(ctx context.Context, booking *models.Booking) error
	EnqueueSyncSchedule(ctx context.Context, startDate, endDate time.Time) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID string, bookingStatus string) error
	UpdateScheduleSheet(ctx context.Context, startDate, endDate time.Time, dailyBookings map[string][]models.Booking) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateOffer(ctx context.Context, offer *models.Offer) error
	DeriveOfferStatus(ctx context.Context, offerID string) (*models.DerivedStatus, error)
	ReservationsView(ctx context.Context) ([]models.Booking, error)
	SendOffer(ctx context.Context, offerID string) error
	CreateInvoiceForOffer(ctx context.Context, offerID string, invoice *models.Invoice) error
	MarkInvoicePaid(ctx context.Context, invoiceID string) error
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]models.Booking, error)
}

type TaskService interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	VerifyTask(ctx context.Context, taskID string, verifiedBy string) (*models.Booking, error)
}
