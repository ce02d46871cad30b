package repository

import (
	"context"
	"sync"
	"time"

	"gasthof/internal/models"
)

type MemoryStatusCache struct {
	derived    sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

type derivedEntry struct {
	value     *models.DerivedStatus
	expiresAt time.Time
}

func NewMemoryStatusCache(ttl time.Duration) *MemoryStatusCache {
	return &MemoryStatusCache{
		ttl: ttl,
	}
}

func (r *MemoryStatusCache) GetDerived(ctx context.Context, offerID string) (*models.DerivedStatus, error) {
	val, ok := r.derived.Load(offerID)
	if !ok {
		return nil, nil
	}
	entry := val.(*derivedEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.derived.Delete(offerID)
		return nil, nil
	}
	return entry.value, nil
}

func (r *MemoryStatusCache) SetDerived(ctx context.Context, derived *models.DerivedStatus) error {
	r.derived.Store(derived.OfferID, &derivedEntry{
		value:     derived,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryStatusCache) Invalidate(ctx context.Context, offerID string) error {
	r.derived.Delete(offerID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStatusCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
