package service

import (
	"context"
	"io"
	"testing"
	"time"

	"gasthof/internal/database"
	"gasthof/internal/domain"
	"gasthof/internal/events"
	"gasthof/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskService(repo *MockRepository, cache *MockStatusCache, syncWorker *MockSyncWorker) *TaskServiceImpl {
	logger := zerolog.New(io.Discard)
	var c domain.StatusCache
	if cache != nil {
		c = cache
	}
	var sw domain.SyncWorker
	if syncWorker != nil {
		sw = syncWorker
	}
	return NewTaskService(repo, c, events.NewEventBus(), sw, &logger)
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Stored", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateTask", ctx, mock.AnythingOfType("*models.Task")).Return(nil)

		task := &models.Task{
			ID:         "task-1",
			Type:       models.TaskTypeCleaning,
			PropertyID: "prop-1",
			Date:       time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC),
		}

		svc := newTaskService(repo, nil, nil)
		err := svc.CreateTask(ctx, task)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("RepositoryErrorSurfaces", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateTask", ctx, mock.AnythingOfType("*models.Task")).Return(assert.AnError)

		svc := newTaskService(repo, nil, nil)
		err := svc.CreateTask(ctx, &models.Task{ID: "task-2", Type: models.TaskTypeCleaning})

		assert.Error(t, err)
	})
}

func TestVerifyTask(t *testing.T) {
	ctx := context.Background()

	t.Run("MoveInAdvancesToCheckInDone", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockStatusCache)
		syncWorker := new(MockSyncWorker)

		task := &models.Task{
			ID:        "task-1",
			Type:      models.TaskTypeMoveIn,
			Status:    models.TaskStatusDoneByWorker,
			BookingID: "booking-1",
			Date:      time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		}
		booking := &models.Booking{ID: "booking-1", Status: "paid", Version: 2}

		repo.On("GetTask", ctx, "task-1").Return(task, nil)
		repo.On("UpdateTaskStatus", ctx, "task-1", models.TaskStatusVerified).Return(nil)
		repo.On("GetBooking", ctx, "booking-1").Return(booking, nil)
		repo.On("UpdateBookingStatusWithVersion", ctx, "booking-1", int64(2), "checkin_done", "fill-checkin").Return(nil)
		cache.On("Invalidate", ctx, "booking-1").Return(nil)
		syncWorker.On("EnqueueStatusUpdate", ctx, "booking-1", "checkin_done").Return(nil)

		svc := newTaskService(repo, cache, syncWorker)
		updated, err := svc.VerifyTask(ctx, "task-1", "admin")

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "checkin_done", updated.Status)
		assert.Equal(t, int64(3), updated.Version)
		repo.AssertExpectations(t)
		syncWorker.AssertExpectations(t)
	})

	t.Run("MoveOutAdvancesToCompleted", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockStatusCache)
		syncWorker := new(MockSyncWorker)

		task := &models.Task{
			ID:        "task-2",
			Type:      models.TaskTypeMoveOut,
			Status:    models.TaskStatusDoneByWorker,
			BookingID: "booking-2",
		}
		booking := &models.Booking{ID: "booking-2", Status: "checkin_done", Version: 5}

		repo.On("GetTask", ctx, "task-2").Return(task, nil)
		repo.On("UpdateTaskStatus", ctx, "task-2", models.TaskStatusVerified).Return(nil)
		repo.On("GetBooking", ctx, "booking-2").Return(booking, nil)
		repo.On("UpdateBookingStatusWithVersion", ctx, "booking-2", int64(5), "completed", "fill-completed").Return(nil)
		cache.On("Invalidate", ctx, "booking-2").Return(nil)
		syncWorker.On("EnqueueStatusUpdate", ctx, "booking-2", "completed").Return(nil)

		svc := newTaskService(repo, cache, syncWorker)
		updated, err := svc.VerifyTask(ctx, "task-2", "admin")

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "completed", updated.Status)
	})

	t.Run("CleaningDoesNotTouchBooking", func(t *testing.T) {
		repo := new(MockRepository)

		task := &models.Task{
			ID:        "task-3",
			Type:      models.TaskTypeCleaning,
			Status:    models.TaskStatusDoneByWorker,
			BookingID: "booking-3",
		}
		repo.On("GetTask", ctx, "task-3").Return(task, nil)
		repo.On("UpdateTaskStatus", ctx, "task-3", models.TaskStatusVerified).Return(nil)

		svc := newTaskService(repo, nil, nil)
		updated, err := svc.VerifyTask(ctx, "task-3", "admin")

		require.NoError(t, err)
		assert.Nil(t, updated)
		repo.AssertNotCalled(t, "GetBooking", mock.Anything, mock.Anything)
	})

	t.Run("MoveTaskWithoutBookingIsNoOp", func(t *testing.T) {
		repo := new(MockRepository)

		task := &models.Task{ID: "task-4", Type: models.TaskTypeMoveIn, Status: models.TaskStatusOpen}
		repo.On("GetTask", ctx, "task-4").Return(task, nil)
		repo.On("UpdateTaskStatus", ctx, "task-4", models.TaskStatusVerified).Return(nil)

		svc := newTaskService(repo, nil, nil)
		updated, err := svc.VerifyTask(ctx, "task-4", "admin")

		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("MissingBookingIsNoOp", func(t *testing.T) {
		repo := new(MockRepository)

		task := &models.Task{
			ID:        "task-5",
			Type:      models.TaskTypeMoveOut,
			Status:    models.TaskStatusDoneByWorker,
			BookingID: "gone",
		}
		repo.On("GetTask", ctx, "task-5").Return(task, nil)
		repo.On("UpdateTaskStatus", ctx, "task-5", models.TaskStatusVerified).Return(nil)
		repo.On("GetBooking", ctx, "gone").Return(nil, database.ErrNotFound)

		svc := newTaskService(repo, nil, nil)
		updated, err := svc.VerifyTask(ctx, "task-5", "admin")

		require.NoError(t, err)
		assert.Nil(t, updated)
	})
}
