package service

import (
	"context"
	"errors"
	"fmt"

	"gasthof/internal/database"
	"gasthof/internal/domain"
	"gasthof/internal/events"
	"gasthof/internal/models"
	"gasthof/internal/status"

	"github.com/rs/zerolog"
)

// TaskServiceImpl verifies facility tasks and advances the booking
// lifecycle when a verified move task warrants it.
type TaskServiceImpl struct {
	repo   domain.Repository
	cache  domain.StatusCache
	bus    domain.EventPublisher
	sync   domain.SyncWorker
	logger *zerolog.Logger
}

func NewTaskService(repo domain.Repository, cache domain.StatusCache, bus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *TaskServiceImpl {
	return &TaskServiceImpl{
		repo:   repo,
		cache:  cache,
		bus:    bus,
		sync:   syncWorker,
		logger: logger,
	}
}

// CreateTask stores a new facility task.
func (s *TaskServiceImpl) CreateTask(ctx context.Context, task *models.Task) error {
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	s.logger.Info().Str("task_id", task.ID).Str("task_type", task.Type).Msg("Task created")
	return nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// VerifyTask marks a task as verified and, for move tasks, advances the
// referenced booking. Returns the updated booking, or nil when the task
// does not touch the lifecycle (cleaning tasks, tasks without a
// booking).
func (s *TaskServiceImpl) VerifyTask(ctx context.Context, taskID string, verifiedBy string) (*models.Booking, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	if err := s.repo.UpdateTaskStatus(ctx, taskID, models.TaskStatusVerified); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	task.Status = models.TaskStatusVerified

	s.logger.Info().
		Str("task_id", taskID).
		Str("task_type", task.Type).
		Str("verified_by", verifiedBy).
		Msg("Task verified")

	s.publish(events.EventTaskVerified, events.StatusEventPayload{
		TaskID:     taskID,
		BookingID:  task.BookingID,
		PropertyID: task.PropertyID,
		ChangedBy:  verifiedBy,
	})

	next, ok := status.NextStatusOnTaskVerified(*task)
	if !ok || task.BookingID == "" {
		return nil, nil
	}

	booking, err := s.repo.GetBooking(ctx, task.BookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Задача ссылается на несуществующую бронь - двигать нечего
			s.logger.Warn().Str("task_id", taskID).Str("booking_id", task.BookingID).Msg("Verified move task references missing booking")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", task.BookingID, err)
	}

	from := booking.Status
	style := status.StyleFor(next)
	if err := s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, string(next), style.Fill); err != nil {
		return nil, fmt.Errorf("failed to advance booking status: %w", err)
	}
	booking.Status = string(next)
	booking.Color = style.Fill
	booking.Version++

	// Legacy offers reuse the booking id as the cache key, so this
	// covers the fallback-derived entries too.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, booking.ID); err != nil {
			s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("Failed to invalidate status cache")
		}
	}

	if s.sync != nil {
		if err := s.sync.EnqueueStatusUpdate(ctx, booking.ID, string(next)); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("Failed to enqueue status sync")
		}
	}

	s.publish(events.EventStatusChanged, events.StatusEventPayload{
		BookingID:  booking.ID,
		PropertyID: booking.PropertyID,
		TaskID:     taskID,
		FromStatus: from,
		ToStatus:   string(next),
		ChangedBy:  verifiedBy,
	})

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("from", from).
		Str("to", string(next)).
		Msg("Booking status advanced by verified task")

	return booking, nil
}

func (s *TaskServiceImpl) publish(eventType string, payload events.StatusEventPayload) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
