package repository

import (
	"context"
	"sync/atomic"
	"time"

	"gasthof/internal/domain"
	"gasthof/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStatusCache serves from the primary (redis) cache and falls
// back to the in-memory cache while the primary is unreachable,
// probing for recovery once a minute.
type FailoverStatusCache struct {
	primary   domain.StatusCache
	fallback  domain.StatusCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverStatusCache(primary, fallback domain.StatusCache, logger *zerolog.Logger) *FailoverStatusCache {
	return &FailoverStatusCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStatusCache) GetDerived(ctx context.Context, offerID string) (*models.DerivedStatus, error) {
	if !r.isDown.Load() {
		derived, err := r.primary.GetDerived(ctx, offerID)
		if err == nil {
			return derived, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		derived, err := r.primary.GetDerived(ctx, offerID)
		if err == nil {
			r.isDown.Store(false)
			return derived, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetDerived(ctx, offerID)
}

func (r *FailoverStatusCache) SetDerived(ctx context.Context, derived *models.DerivedStatus) error {
	if !r.isDown.Load() {
		err := r.primary.SetDerived(ctx, derived)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetDerived(ctx, derived)
}

func (r *FailoverStatusCache) Invalidate(ctx context.Context, offerID string) error {
	if !r.isDown.Load() {
		err := r.primary.Invalidate(ctx, offerID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.Invalidate(ctx, offerID)
}

func (r *FailoverStatusCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverStatusCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary status cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}
