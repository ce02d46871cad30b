package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gasthof/internal/config"
	"gasthof/internal/domain"
	"gasthof/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authConfig(keys ...config.APIClientKey) config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: keys,
		},
	}
}

func wrapOK(cfg config.APIConfig) http.Handler {
	return wrapOKWithLimiter(cfg, nil)
}

func wrapOKWithLimiter(cfg config.APIConfig, limiter domain.StatusCache) http.Handler {
	auth := NewHTTPAuth(cfg, limiter)
	return auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestHTTPAuth(t *testing.T) {
	t.Run("MissingKey", func(t *testing.T) {
		handler := wrapOK(authConfig(config.APIClientKey{Key: "secret", Name: "ui"}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		handler := wrapOK(authConfig(config.APIClientKey{Key: "secret", Name: "ui"}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
		req.Header.Set("x-api-key", "wrong")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ValidKey", func(t *testing.T) {
		handler := wrapOK(authConfig(config.APIClientKey{Key: "secret", Name: "ui"}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
		req.Header.Set("x-api-key", "secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		handler := wrapOK(authConfig(config.APIClientKey{
			Key:         "secret",
			Name:        "readonly",
			Permissions: []string{"read:reservations"},
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/offer-1/send", nil)
		req.Header.Set("x-api-key", "secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("EmptyPermissionsAllowAll", func(t *testing.T) {
		handler := wrapOK(authConfig(config.APIClientKey{Key: "secret", Name: "admin"}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/task-1/verify", nil)
		req.Header.Set("x-api-key", "secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("DisabledAuthPassesThrough", func(t *testing.T) {
		handler := wrapOK(config.APIConfig{Enabled: false})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("RateLimit", func(t *testing.T) {
		cfg := authConfig(config.APIClientKey{Key: "secret", Name: "ui"})
		cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}
		handler := wrapOK(cfg)

		var last int
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
			req.Header.Set("x-api-key", "secret")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			last = rec.Code
		}

		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("SharedBackendRateLimit", func(t *testing.T) {
		// With a cache backend the limit is a fixed window in the shared
		// store, not a local token bucket.
		cfg := authConfig(config.APIClientKey{Key: "secret", Name: "ui"})
		cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.05, Burst: 1} // 3 per minute window
		handler := wrapOKWithLimiter(cfg, repository.NewMemoryStatusCache(time.Minute))

		codes := make([]int, 0, 4)
		for i := 0; i < 4; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
			req.Header.Set("x-api-key", "secret")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}

		assert.Equal(t, []int{200, 200, 200, 429}, codes)
	})
}

func TestRequiredPermission(t *testing.T) {
	cases := map[string]string{
		"/api/v1/reservations":           "read:reservations",
		"/api/v1/bookings":               "write:bookings",
		"/api/v1/offers":                 "write:offers",
		"/api/v1/tasks":                  "write:tasks",
		"/api/v1/offers/offer-1/status":  "read:status",
		"/api/v1/offers/offer-1/send":    "write:offers",
		"/api/v1/offers/offer-1/invoice": "write:offers",
		"/api/v1/invoices/inv-1/pay":     "write:invoices",
		"/api/v1/tasks/task-1/verify":    "write:tasks",
		"/api/v1/exports/occupancy":      "read:exports",
		"/healthz":                       "",
	}

	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		require.Equal(t, want, requiredPermission(req), path)
	}
}
