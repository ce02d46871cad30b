package service

import (
	"context"
	"time"

	"gasthof/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *MockRepository) UpdateBookingStatus(ctx context.Context, id string, bookingStatus, color string) error {
	return m.Called(ctx, id, bookingStatus, color).Error(0)
}

func (m *MockRepository) UpdateBookingStatusWithVersion(ctx context.Context, id string, version int64, bookingStatus, color string) error {
	return m.Called(ctx, id, version, bookingStatus, color).Error(0)
}

func (m *MockRepository) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockRepository) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockRepository) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *MockRepository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return m.Called(ctx, offer).Error(0)
}

func (m *MockRepository) UpdateOfferStatus(ctx context.Context, id string, offerStatus string) error {
	return m.Called(ctx, id, offerStatus).Error(0)
}

func (m *MockRepository) GetAllOffers(ctx context.Context) ([]models.Offer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Offer), args.Error(1)
}

func (m *MockRepository) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockRepository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockRepository) UpdateInvoiceStatus(ctx context.Context, id string, invoiceStatus string) error {
	return m.Called(ctx, id, invoiceStatus).Error(0)
}

func (m *MockRepository) GetInvoicesByOffer(ctx context.Context, offerID string) ([]models.Invoice, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *MockRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockRepository) CreateTask(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockRepository) UpdateTaskStatus(ctx context.Context, id string, taskStatus string) error {
	return m.Called(ctx, id, taskStatus).Error(0)
}

func (m *MockRepository) GetTasksByProperty(ctx context.Context, propertyID string) ([]models.Task, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockRepository) GetTasksByBooking(ctx context.Context, bookingID string) ([]models.Task, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

type MockStatusCache struct {
	mock.Mock
}

func (m *MockStatusCache) GetDerived(ctx context.Context, offerID string) (*models.DerivedStatus, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DerivedStatus), args.Error(1)
}

func (m *MockStatusCache) SetDerived(ctx context.Context, derived *models.DerivedStatus) error {
	return m.Called(ctx, derived).Error(0)
}

func (m *MockStatusCache) Invalidate(ctx context.Context, offerID string) error {
	return m.Called(ctx, offerID).Error(0)
}

func (m *MockStatusCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

type MockSyncWorker struct {
	mock.Mock
}

func (m *MockSyncWorker) EnqueueStatusUpdate(ctx context.Context, bookingID string, bookingStatus string) error {
	return m.Called(ctx, bookingID, bookingStatus).Error(0)
}

func (m *MockSyncWorker) EnqueueUpsert(ctx context.Context, booking *models.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *MockSyncWorker) EnqueueSyncSchedule(ctx context.Context, startDate, endDate time.Time) error {
	return m.Called(ctx, startDate, endDate).Error(0)
}
