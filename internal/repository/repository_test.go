package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"gasthof/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStatusCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStatusCache(client, time.Minute)
}

func TestRedisStatusCache(t *testing.T) {
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		_, cache := newTestRedis(t)

		derived := &models.DerivedStatus{
			OfferID:   "offer-1",
			Status:    "invoiced",
			Fill:      "fill-invoiced",
			Border:    "solid",
			DerivedAt: time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, cache.SetDerived(ctx, derived))

		got, err := cache.GetDerived(ctx, "offer-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, derived.Status, got.Status)
		assert.Equal(t, derived.Fill, got.Fill)
	})

	t.Run("GetMissReturnsNil", func(t *testing.T) {
		_, cache := newTestRedis(t)

		got, err := cache.GetDerived(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Invalidate", func(t *testing.T) {
		_, cache := newTestRedis(t)

		require.NoError(t, cache.SetDerived(ctx, &models.DerivedStatus{OfferID: "offer-2", Status: "paid"}))
		require.NoError(t, cache.Invalidate(ctx, "offer-2"))

		got, err := cache.GetDerived(ctx, "offer-2")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("EntryExpires", func(t *testing.T) {
		mr, cache := newTestRedis(t)

		require.NoError(t, cache.SetDerived(ctx, &models.DerivedStatus{OfferID: "offer-3", Status: "reserved"}))
		mr.FastForward(2 * time.Minute)

		got, err := cache.GetDerived(ctx, "offer-3")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		mr, cache := newTestRedis(t)

		for i := 0; i < 3; i++ {
			allowed, err := cache.CheckRateLimit(ctx, "client-a", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := cache.CheckRateLimit(ctx, "client-a", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		// Window reset restores the budget
		mr.FastForward(2 * time.Minute)
		allowed, err = cache.CheckRateLimit(ctx, "client-a", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestMemoryStatusCache(t *testing.T) {
	ctx := context.Background()

	t.Run("SetGetInvalidate", func(t *testing.T) {
		cache := NewMemoryStatusCache(time.Minute)

		require.NoError(t, cache.SetDerived(ctx, &models.DerivedStatus{OfferID: "offer-1", Status: "offer_sent"}))

		got, err := cache.GetDerived(ctx, "offer-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "offer_sent", got.Status)

		require.NoError(t, cache.Invalidate(ctx, "offer-1"))
		got, err = cache.GetDerived(ctx, "offer-1")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		cache := NewMemoryStatusCache(time.Minute)

		allowed, err := cache.CheckRateLimit(ctx, "client-b", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = cache.CheckRateLimit(ctx, "client-b", 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}

type failingCache struct{}

func (f *failingCache) GetDerived(ctx context.Context, offerID string) (*models.DerivedStatus, error) {
	return nil, errors.New("connection refused")
}

func (f *failingCache) SetDerived(ctx context.Context, derived *models.DerivedStatus) error {
	return errors.New("connection refused")
}

func (f *failingCache) Invalidate(ctx context.Context, offerID string) error {
	return errors.New("connection refused")
}

func (f *failingCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func TestFailoverStatusCache(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("FallsBackOnPrimaryError", func(t *testing.T) {
		fallback := NewMemoryStatusCache(time.Minute)
		cache := NewFailoverStatusCache(&failingCache{}, fallback, &logger)

		require.NoError(t, cache.SetDerived(ctx, &models.DerivedStatus{OfferID: "offer-1", Status: "paid"}))

		got, err := cache.GetDerived(ctx, "offer-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "paid", got.Status)
	})

	t.Run("UsesPrimaryWhenHealthy", func(t *testing.T) {
		_, primary := newTestRedis(t)
		fallback := NewMemoryStatusCache(time.Minute)
		cache := NewFailoverStatusCache(primary, fallback, &logger)

		require.NoError(t, cache.SetDerived(ctx, &models.DerivedStatus{OfferID: "offer-2", Status: "completed"}))

		// Written through primary, not the fallback
		got, err := primary.GetDerived(ctx, "offer-2")
		require.NoError(t, err)
		require.NotNil(t, got)

		inFallback, err := fallback.GetDerived(ctx, "offer-2")
		require.NoError(t, err)
		assert.Nil(t, inFallback)
	})

	t.Run("RateLimitFallsBack", func(t *testing.T) {
		fallback := NewMemoryStatusCache(time.Minute)
		cache := NewFailoverStatusCache(&failingCache{}, fallback, &logger)

		allowed, err := cache.CheckRateLimit(ctx, "client-c", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = cache.CheckRateLimit(ctx, "client-c", 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
