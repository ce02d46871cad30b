package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gasthof/internal/api"
	"gasthof/internal/config"
	"gasthof/internal/database"
	"gasthof/internal/domain"
	"gasthof/internal/events"
	"gasthof/internal/export"
	"gasthof/internal/google"
	"gasthof/internal/logging"
	"gasthof/internal/metrics"
	"gasthof/internal/models"
	"gasthof/internal/repository"
	"gasthof/internal/service"
	"gasthof/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	metrics.Register()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, statusCache := initStatusCache(ctx, cfg, &logger)
	defer repository.Close(redisClient)

	sheetsService := initGoogleSheets(ctx, cfg, &logger)

	eventBus := events.NewEventBus()

	var sheetsWorker *worker.SheetsWorker
	var syncWorker domain.SyncWorker
	bookingService := service.NewBookingService(db, statusCache, eventBus, nil, &logger)
	if sheetsService != nil && cfg.Sync.Enabled {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		sheetsWorker = worker.NewSheetsWorker(db, sheetsService, bookingService, redisClient, retryPolicy, &logger)
		syncWorker = sheetsWorker
		go sheetsWorker.Start(ctx)

		// Пересоздаем сервис уже с воркером
		bookingService = service.NewBookingService(db, statusCache, eventBus, syncWorker, &logger)
	}
	taskService := service.NewTaskService(db, statusCache, eventBus, syncWorker, &logger)

	subscribeStatusEvents(ctx, eventBus, db, sheetsWorker, &logger)

	exportService := export.NewService(bookingService, cfg.Exports.Path, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	if cfg.Monitoring.PrometheusEnabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
			logger.Info().Str("addr", addr).Msg("Prometheus endpoint listening")
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error().Err(err).Msg("Prometheus endpoint error")
			}
		}()
	}

	apiServer := api.NewHTTPServer(cfg.API, bookingService, taskService, exportService, statusCache, &logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initStatusCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.StatusCache) {
	ttl := time.Duration(models.StatusCacheTTL) * time.Second
	fallback := repository.NewMemoryStatusCache(ttl)

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primary := repository.NewRedisStatusCache(redisClient, ttl)
	return redisClient, repository.NewFailoverStatusCache(primary, fallback, logger)
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.ScheduleSpreadsheetID == "" {
		logger.Info().Msg("Google Sheets sync is not configured")
		return nil
	}

	sheetsSvc, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.ScheduleSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsSvc.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Sheets connection test failed")
		return nil
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsSvc
}

func subscribeStatusEvents(
	ctx context.Context,
	bus *events.EventBus,
	db *database.DB,
	sheetsWorker *worker.SheetsWorker,
	logger *zerolog.Logger,
) {
	if bus == nil || sheetsWorker == nil || db == nil {
		return
	}

	decode := func(ev *events.Event) (events.StatusEventPayload, error) {
		var payload events.StatusEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return payload, err
		}
		return payload, nil
	}

	// Status cell updates are enqueued by the services themselves; the
	// bus handler refreshes the occupancy grid for the affected stay.
	scheduleHandler := func(ev *events.Event) error {
		payload, err := decode(ev)
		if err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		if payload.BookingID == "" {
			return nil
		}

		booking, err := db.GetBooking(ctx, payload.BookingID)
		if err != nil {
			logger.Error().Err(err).Str("booking_id", payload.BookingID).Msg("event bus: load booking")
			return nil
		}

		if err := sheetsWorker.EnqueueSyncSchedule(ctx, booking.StartDate, booking.EndDate); err != nil {
			logger.Error().Err(err).Str("booking_id", payload.BookingID).Msg("event bus: enqueue schedule sync")
		}
		return nil
	}

	bus.Subscribe(events.EventStatusChanged, scheduleHandler)
	bus.Subscribe(events.EventInvoicePaid, scheduleHandler)
}
