package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gasthof/internal/config"
	"gasthof/internal/database"
	"gasthof/internal/domain"
	"gasthof/internal/metrics"
	"gasthof/internal/models"
	"gasthof/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Exporter produces downloadable XLSX files.
type Exporter interface {
	ExportOccupancy(ctx context.Context, startDate, endDate time.Time) (string, error)
	ExportReservations(ctx context.Context) (string, error)
}

// HTTPServer exposes the booking status lifecycle over HTTP.
type HTTPServer struct {
	cfg      config.APIConfig
	bookings domain.BookingService
	tasks    domain.TaskService
	exporter Exporter
	server   *http.Server
	auth     *HTTPAuth
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, bookings domain.BookingService, tasks domain.TaskService, exporter Exporter, limiter domain.StatusCache, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:      cfg,
		bookings: bookings,
		tasks:    tasks,
		exporter: exporter,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg, limiter)

	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("/api/v1/offers", srv.handleCreateOffer)
	mux.HandleFunc("/api/v1/offers/", srv.handleOffers)
	mux.HandleFunc("/api/v1/invoices/", srv.handleInvoices)
	mux.HandleFunc("/api/v1/tasks", srv.handleCreateTask)
	mux.HandleFunc("/api/v1/tasks/", srv.handleTasks)
	mux.HandleFunc("/api/v1/exports/occupancy", srv.handleExportOccupancy)
	mux.HandleFunc("/api/v1/exports/reservations", srv.handleExportReservations)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler returns the configured root handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reservations, err := s.bookings.ReservationsView(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load reservations view")
		writeError(w, http.StatusInternalServerError, "failed to load reservations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reservations": reservations})
}

// handleCreateBooking accepts POST /api/v1/bookings.
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_create")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type request struct {
		PropertyID string `json:"property_id"`
		RoomName   string `json:"room_name"`
		GuestName  string `json:"guest_name"`
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
		Status     string `json:"status"`
		Comment    string `json:"comment"`
	}
	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.PropertyID == "" {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}

	start, err := time.Parse(models.DateOnly, body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse(models.DateOnly, body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date; expected YYYY-MM-DD")
		return
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end_date must be after start_date")
		return
	}

	booking := &models.Booking{
		PropertyID: body.PropertyID,
		RoomName:   body.RoomName,
		GuestName:  body.GuestName,
		StartDate:  start,
		EndDate:    end,
		Status:     body.Status,
		Comment:    body.Comment,
	}
	if err := s.bookings.CreateBooking(r.Context(), booking); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create booking")
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// handleCreateOffer accepts POST /api/v1/offers.
func (s *HTTPServer) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("offer_create")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type request struct {
		ReservationID string `json:"reservation_id"`
		PropertyID    string `json:"property_id"`
		ClientName    string `json:"client_name"`
		ClientEmail   string `json:"client_email"`
		Period        string `json:"period"`
	}
	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.PropertyID == "" {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}

	offer := &models.Offer{
		ReservationID: body.ReservationID,
		PropertyID:    body.PropertyID,
		ClientName:    body.ClientName,
		ClientEmail:   body.ClientEmail,
		Period:        body.Period,
	}
	if err := s.bookings.CreateOffer(r.Context(), offer); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create offer")
		writeError(w, http.StatusInternalServerError, "failed to create offer")
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

// handleCreateTask accepts POST /api/v1/tasks.
func (s *HTTPServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("task_create")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type request struct {
		Type       string `json:"type"`
		BookingID  string `json:"booking_id"`
		PropertyID string `json:"property_id"`
		Date       string `json:"date"`
		AssignedTo string `json:"assigned_to"`
		Note       string `json:"note"`
	}
	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	date, err := time.Parse(models.DateOnly, body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	task := &models.Task{
		Type:       body.Type,
		BookingID:  body.BookingID,
		PropertyID: body.PropertyID,
		Date:       date,
		AssignedTo: body.AssignedTo,
		Note:       body.Note,
	}
	if err := s.tasks.CreateTask(r.Context(), task); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create task")
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// handleOffers routes /api/v1/offers/{id}/status, /{id}/send and
// /{id}/invoice.
func (s *HTTPServer) handleOffers(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitIDAction(r.URL.Path, "/api/v1/offers/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch action {
	case "status":
		metrics.IncHTTP("offer_status")
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.offerStatus(w, r, id)
	case "send":
		metrics.IncHTTP("offer_send")
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.sendOffer(w, r, id)
	case "invoice":
		metrics.IncHTTP("offer_invoice")
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.createInvoice(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) offerStatus(w http.ResponseWriter, r *http.Request, offerID string) {
	derived, err := s.bookings.DeriveOfferStatus(r.Context(), offerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "offer not found")
			return
		}
		s.logger.Error().Err(err).Str("offer_id", offerID).Msg("Failed to derive offer status")
		writeError(w, http.StatusInternalServerError, "failed to derive status")
		return
	}

	writeJSON(w, http.StatusOK, derived)
}

func (s *HTTPServer) sendOffer(w http.ResponseWriter, r *http.Request, offerID string) {
	err := s.bookings.SendOffer(r.Context(), offerID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"offer_id": offerID, "status": "sent"})
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "offer not found")
	case errors.Is(err, service.ErrOfferNotSendable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Str("offer_id", offerID).Msg("Failed to send offer")
		writeError(w, http.StatusInternalServerError, "failed to send offer")
	}
}

func (s *HTTPServer) createInvoice(w http.ResponseWriter, r *http.Request, offerID string) {
	type request struct {
		BookingID string `json:"booking_id"`
		Amount    string `json:"amount"`
		Currency  string `json:"currency"`
		Proforma  bool   `json:"proforma"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount := decimal.Zero
	if body.Amount != "" {
		parsed, err := decimal.NewFromString(body.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		amount = parsed
	}

	invoice := &models.Invoice{
		BookingID: body.BookingID,
		Amount:    amount,
		Currency:  body.Currency,
		Proforma:  body.Proforma,
	}

	err := s.bookings.CreateInvoiceForOffer(r.Context(), offerID, invoice)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, invoice)
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "offer not found")
	case errors.Is(err, service.ErrOfferNotInvoiceable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Str("offer_id", offerID).Msg("Failed to create invoice")
		writeError(w, http.StatusInternalServerError, "failed to create invoice")
	}
}

// handleInvoices routes /api/v1/invoices/{id}/pay.
func (s *HTTPServer) handleInvoices(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitIDAction(r.URL.Path, "/api/v1/invoices/")
	if !ok || action != "pay" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	metrics.IncHTTP("invoice_pay")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	err := s.bookings.MarkInvoicePaid(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"invoice_id": id, "status": models.InvoiceStatusPaid})
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "invoice not found")
	default:
		s.logger.Error().Err(err).Str("invoice_id", id).Msg("Failed to mark invoice paid")
		writeError(w, http.StatusInternalServerError, "failed to mark invoice paid")
	}
}

// handleTasks routes /api/v1/tasks/{id}/verify.
func (s *HTTPServer) handleTasks(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitIDAction(r.URL.Path, "/api/v1/tasks/")
	if !ok || action != "verify" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	metrics.IncHTTP("task_verify")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type request struct {
		VerifiedBy string `json:"verified_by"`
	}
	var body request
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	booking, err := s.tasks.VerifyTask(r.Context(), id, body.VerifiedBy)
	switch {
	case err == nil:
		resp := map[string]any{"task_id": id, "verified": true}
		if booking != nil {
			resp["booking"] = booking
		}
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "booking was modified concurrently")
	default:
		s.logger.Error().Err(err).Str("task_id", id).Msg("Failed to verify task")
		writeError(w, http.StatusInternalServerError, "failed to verify task")
	}
}

func (s *HTTPServer) handleExportOccupancy(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_occupancy")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "exports are not configured")
		return
	}

	now := time.Now()
	start := now.AddDate(0, -models.DefaultExportRangeMonthsBefore, 0)
	end := now.AddDate(0, models.DefaultExportRangeMonthsAfter, 0)

	if raw := strings.TrimSpace(r.URL.Query().Get("start")); raw != "" {
		parsed, err := time.Parse(models.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date; expected YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("end")); raw != "" {
		parsed, err := time.Parse(models.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date; expected YYYY-MM-DD")
			return
		}
		end = parsed
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end date is before start date")
		return
	}

	path, err := s.exporter.ExportOccupancy(r.Context(), start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to export occupancy")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	http.ServeFile(w, r, path)
}

func (s *HTTPServer) handleExportReservations(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_reservations")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "exports are not configured")
		return
	}

	path, err := s.exporter.ExportReservations(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to export reservations")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	http.ServeFile(w, r, path)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// splitIDAction parses "<prefix>{id}/{action}" paths.
func splitIDAction(path, prefix string) (id, action string, ok bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
