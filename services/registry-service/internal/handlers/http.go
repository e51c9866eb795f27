package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/registry-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/registry-service/internal/storage"
)

const minutesPerDay = 24 * 60

// Handler owns the resource admin API. Every write commits its outbox
// event in the same transaction as the registry rows.
type Handler struct {
	repo       *storage.Repository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func New(repo *storage.Repository, outboxRepo *outbox.Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, outboxRepo: outboxRepo, logger: logger}
}

type resourceView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type hoursView struct {
	ResourceID  string  `json:"resource_id"`
	WorkingDays [7]bool `json:"working_days"`
	StartMinute int     `json:"start_minute"`
	EndMinute   int     `json:"end_minute"`
}

// Collection routes /v1/resources: POST creates, GET lists.
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createResource(w, r)
	case http.MethodGet:
		h.listResources(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item routes /v1/resources/{id} and /v1/resources/{id}/hours.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/resources/"), "/")
	parts := strings.Split(rest, "/")
	if rest == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.getResource(w, r, id)
		return
	}
	if parts[1] != "hours" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getHours(w, r, id)
	case http.MethodPut:
		h.putHours(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createResource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := h.repo.CreateResourceTx(ctx, tx, req.Name)
	if err != nil {
		http.Error(w, "failed to create resource", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"resource_id": res.ID,
		"name":        res.Name,
		"created_at":  res.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "resource",
		AggregateID:   res.ID,
		EventType:     outbox.EventResourceCreated,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resourceView{
		ID:        res.ID,
		Name:      res.Name,
		Active:    res.Active,
		CreatedAt: res.CreatedAt,
	})
}

func (h *Handler) listResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.repo.ListResources(r.Context(), 100)
	if err != nil {
		http.Error(w, "failed to list resources", http.StatusInternalServerError)
		return
	}

	items := make([]resourceView, 0, len(resources))
	for _, res := range resources {
		items = append(items, resourceView{ID: res.ID, Name: res.Name, Active: res.Active, CreatedAt: res.CreatedAt})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

func (h *Handler) getResource(w http.ResponseWriter, r *http.Request, id string) {
	res, err := h.repo.GetResource(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "resource not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load resource", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resourceView{ID: res.ID, Name: res.Name, Active: res.Active, CreatedAt: res.CreatedAt})
}

func (h *Handler) getHours(w http.ResponseWriter, r *http.Request, id string) {
	week, err := h.repo.ListHours(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "resource not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load working hours", http.StatusInternalServerError)
		return
	}

	view := hoursView{ResourceID: id}
	view.WorkingDays, view.StartMinute, view.EndMinute = flattenWeek(week)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(view)
}

func (h *Handler) putHours(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		WorkingDays []bool `json:"working_days"`
		StartMinute int    `json:"start_minute"`
		EndMinute   int    `json:"end_minute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := validateHours(req.WorkingDays, req.StartMinute, req.EndMinute); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var week [7]storage.DayHours
	for wd := 0; wd <= 6; wd++ {
		week[wd] = storage.DayHours{Weekday: wd, IsWorking: req.WorkingDays[wd]}
		if req.WorkingDays[wd] {
			week[wd].StartMinute = req.StartMinute
			week[wd].EndMinute = req.EndMinute
		}
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.UpdateHoursTx(ctx, tx, id, week); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "resource not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update working hours", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"resource_id":  id,
		"working_days": req.WorkingDays,
		"start_minute": req.StartMinute,
		"end_minute":   req.EndMinute,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "resource",
		AggregateID:   id,
		EventType:     outbox.EventHoursUpdated,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateHours rejects templates the booking engine could not honor:
// exactly seven weekday flags, Sunday first, and one half-open window
// inside the day with start strictly before end.
func validateHours(days []bool, start, end int) error {
	if len(days) != 7 {
		return errors.New("working_days must have exactly 7 entries, Sunday first")
	}
	if start < 0 || start >= minutesPerDay {
		return errors.New("start_minute must be between 0 and 1439")
	}
	if end <= start || end > minutesPerDay {
		return errors.New("end_minute must be after start_minute and at most 1440")
	}
	return nil
}

// flattenWeek reduces per-weekday rows to the uniform template the admin
// API exposes: day flags plus the shared window of the working days.
func flattenWeek(week [7]storage.DayHours) ([7]bool, int, int) {
	var days [7]bool
	start, end := 0, 0
	seen := false
	for i, dh := range week {
		days[i] = dh.IsWorking
		if dh.IsWorking && !seen {
			start, end = dh.StartMinute, dh.EndMinute
			seen = true
		}
	}
	return days, start, end
}
