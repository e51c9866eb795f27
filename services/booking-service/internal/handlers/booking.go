package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
)

// BookingHandler exposes the scheduling engine over HTTP. The engine
// answers synchronously from memory; accepted writes are then mirrored to
// postgres together with their outbox event. A nil repo disables the
// mirror, which is how tests and memory-only deployments run.
type BookingHandler struct {
	svc        *schedule.Service
	repo       *storage.BookingRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewBookingHandler(svc *schedule.Service, repo *storage.BookingRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		svc:        svc,
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

type createBookingRequest struct {
	ResourceID      string `json:"resource_id"`
	Date            string `json:"date"`
	StartMinute     int    `json:"start_minute"`
	DurationMinutes int    `json:"duration_minutes"`
}

type bookingResponse struct {
	BookingID   int64  `json:"booking_id"`
	ResourceID  string `json:"resource_id"`
	Date        string `json:"date"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type slotItem struct {
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Collection routes /v1/bookings: POST creates, GET lists one day.
func (h *BookingHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item routes /v1/bookings/{id} and /v1/bookings/{id}/{complete|cancel}.
func (h *BookingHandler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/bookings/"), "/")
	parts := strings.Split(rest, "/")
	if rest == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "booking id must be an integer")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.get(w, r, id)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch parts[1] {
	case "complete":
		h.transition(w, r, id, model.StatusCompleted)
	case "cancel":
		h.transition(w, r, id, model.StatusCancelled)
	default:
		http.NotFound(w, r)
	}
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid json body")
		return
	}
	req.ResourceID = strings.TrimSpace(req.ResourceID)
	if req.ResourceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "resource_id is required")
		return
	}
	date, err := model.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be a valid YYYY-MM-DD day")
		return
	}

	b, err := h.svc.Create(r.Context(), req.ResourceID, date, req.StartMinute, req.DurationMinutes)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	if err := h.mirrorCreated(r.Context(), b); err != nil {
		// The engine accepted but the mirror did not; release the slot so
		// memory and disk agree, then fail the request. The request's
		// context may already be dead, so compensate on a fresh one.
		h.logger.Error("booking mirror failed, compensating", "booking_id", b.ID, "err", err)
		if _, cErr := h.svc.Cancel(context.Background(), b.ID); cErr != nil {
			h.logger.Error("compensating cancel failed", "booking_id", b.ID, "err", cErr)
		}
		writeError(w, http.StatusInternalServerError, "persistence_failed", "failed to persist booking")
		return
	}

	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, id int64, to model.Status) {
	var (
		b   model.Booking
		err error
	)
	switch to {
	case model.StatusCompleted:
		b, err = h.svc.Complete(r.Context(), id)
	default:
		b, err = h.svc.Cancel(r.Context(), id)
	}
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	eventType := outbox.EventBookingCompleted
	if to == model.StatusCancelled {
		eventType = outbox.EventBookingCancelled
	}
	if err := h.mirrorStatus(r.Context(), b, eventType); err != nil {
		// The in-memory ledger already transitioned and stays
		// authoritative; a restart before the mirror catches up regresses
		// this booking to scheduled.
		h.logger.Error("status mirror failed", "booking_id", b.ID, "status", b.Status.String(), "err", err)
		writeError(w, http.StatusInternalServerError, "persistence_failed", "failed to persist transition")
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	b, err := h.svc.Find(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request) {
	resourceID := strings.TrimSpace(r.URL.Query().Get("resource_id"))
	if resourceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "resource_id is required")
		return
	}
	date, err := model.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be a valid YYYY-MM-DD day")
		return
	}

	bookings, err := h.svc.Bookings(r.Context(), resourceID, date)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	items := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, toBookingResponse(b))
	}
	writeJSON(w, http.StatusOK, items)
}

// Slots serves GET /v1/slots: the free gaps of a resource's day that fit
// at least min_duration minutes.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resourceID := strings.TrimSpace(r.URL.Query().Get("resource_id"))
	if resourceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "resource_id is required")
		return
	}
	date, err := model.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be a valid YYYY-MM-DD day")
		return
	}
	minDuration, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("min_duration")))
	if err != nil || minDuration <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_duration", "min_duration must be a positive integer of minutes")
		return
	}

	slots, err := h.svc.FreeSlots(r.Context(), resourceID, date, minDuration)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			StartMinute: s.Start,
			EndMinute:   s.End,
			Start:       model.Clock(s.Start),
			End:         model.Clock(s.End),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) mirrorCreated(ctx context.Context, b model.Booking) error {
	if h.repo == nil {
		return nil
	}
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.InsertTx(ctx, tx, b); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id":   b.ID,
		"resource_id":  b.ResourceID,
		"date":         b.Date.String(),
		"start_minute": b.Interval.Start,
		"end_minute":   b.Interval.End,
		"status":       b.Status.String(),
		"created_at":   b.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   b.ResourceID,
		EventType:     outbox.EventBookingCreated,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (h *BookingHandler) mirrorStatus(ctx context.Context, b model.Booking, eventType string) error {
	if h.repo == nil {
		return nil
	}
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.SetStatusTx(ctx, tx, b.ID, b.Status, b.UpdatedAt); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id":   b.ID,
		"resource_id":  b.ResourceID,
		"date":         b.Date.String(),
		"start_minute": b.Interval.Start,
		"end_minute":   b.Interval.End,
		"status":       b.Status.String(),
		"updated_at":   b.UpdatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   b.ResourceID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (h *BookingHandler) writeEngineError(w http.ResponseWriter, err error) {
	status, code := engineErrorStatus(err)
	if status == http.StatusServiceUnavailable {
		// Not a scheduling decision: the registry could not answer.
		h.logger.Error("booking request failed", "err", err)
		writeError(w, status, code, "registry unavailable")
		return
	}
	writeError(w, status, code, err.Error())
}

// engineErrorStatus maps engine sentinels to transport codes. Scheduling
// rejections are conflict-class: the request was well formed but the
// calendar disagrees.
func engineErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, schedule.ErrInvalidDuration):
		return http.StatusBadRequest, "invalid_duration"
	case errors.Is(err, schedule.ErrResourceNotFound):
		return http.StatusNotFound, "resource_not_found"
	case errors.Is(err, schedule.ErrResourceUnavailable):
		return http.StatusConflict, "resource_unavailable_on_weekday"
	case errors.Is(err, schedule.ErrOutsideWindow):
		return http.StatusConflict, "outside_working_hours"
	case errors.Is(err, schedule.ErrBookingConflict):
		return http.StatusConflict, "booking_conflict"
	case errors.Is(err, schedule.ErrBookingNotFound):
		return http.StatusNotFound, "booking_not_found"
	case errors.Is(err, schedule.ErrInvalidTransition):
		return http.StatusConflict, "invalid_state_transition"
	}
	return http.StatusServiceUnavailable, "registry_unavailable"
}

func toBookingResponse(b model.Booking) bookingResponse {
	return bookingResponse{
		BookingID:   b.ID,
		ResourceID:  b.ResourceID,
		Date:        b.Date.String(),
		StartMinute: b.Interval.Start,
		EndMinute:   b.Interval.End,
		Status:      b.Status.String(),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
