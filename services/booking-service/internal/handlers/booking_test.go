package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/registry"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/schedule"
)

// newTestHandler serves room-a, Monday through Friday 09:00 to 17:00,
// with the durable mirror disabled.
func newTestHandler() *BookingHandler {
	reg := registry.NewStatic()
	reg.Add("room-a", model.DefaultTemplate())
	svc := schedule.NewService(reg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBookingHandler(svc, nil, nil, logger)
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rw := httptest.NewRecorder()
	h(rw, req)
	return rw
}

func decodeBooking(t *testing.T, rw *httptest.ResponseRecorder) bookingResponse {
	t.Helper()
	var resp bookingResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode booking response: %v (%s)", err, rw.Body.String())
	}
	return resp
}

func decodeError(t *testing.T, rw *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, rw.Body.String())
	}
	return resp
}

func TestCreate_Success(t *testing.T) {
	h := newTestHandler()
	rw := doJSON(t, h.Collection, http.MethodPost, "/v1/bookings",
		`{"resource_id":"room-a","date":"2026-01-26","start_minute":540,"duration_minutes":60}`)

	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}
	resp := decodeBooking(t, rw)
	if resp.BookingID != 1 {
		t.Errorf("expected booking_id 1, got %d", resp.BookingID)
	}
	if resp.StartMinute != 540 || resp.EndMinute != 600 {
		t.Errorf("expected [540,600), got [%d,%d)", resp.StartMinute, resp.EndMinute)
	}
	if resp.Status != "scheduled" {
		t.Errorf("expected scheduled, got %s", resp.Status)
	}
	if ct := rw.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}
}

func TestCreate_Conflict(t *testing.T) {
	h := newTestHandler()
	body := `{"resource_id":"room-a","date":"2026-01-26","start_minute":540,"duration_minutes":60}`
	if rw := doJSON(t, h.Collection, http.MethodPost, "/v1/bookings", body); rw.Code != http.StatusCreated {
		t.Fatalf("seed booking failed: %d", rw.Code)
	}

	rw := doJSON(t, h.Collection, http.MethodPost, "/v1/bookings",
		`{"resource_id":"room-a","date":"2026-01-26","start_minute":570,"duration_minutes":30}`)
	if rw.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw.Code)
	}
	if resp := decodeError(t, rw); resp.Code != "booking_conflict" {
		t.Fatalf("expected booking_conflict, got %q", resp.Code)
	}

	// Touching the first booking's end is not a conflict.
	rw = doJSON(t, h.Collection, http.MethodPost, "/v1/bookings",
		`{"resource_id":"room-a","date":"2026-01-26","start_minute":600,"duration_minutes":30}`)
	if rw.Code != http.StatusCreated {
		t.Fatalf("back-to-back booking should succeed, got %d: %s", rw.Code, rw.Body.String())
	}
}

func TestCreate_Rejections(t *testing.T) {
	h := newTestHandler()
	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{`, http.StatusBadRequest, "invalid_body"},
		{"missing resource", `{"date":"2026-01-26","start_minute":540,"duration_minutes":30}`, http.StatusBadRequest, "invalid_body"},
		{"bad date", `{"resource_id":"room-a","date":"2026-02-30","start_minute":540,"duration_minutes":30}`, http.StatusBadRequest, "invalid_date"},
		{"zero duration", `{"resource_id":"room-a","date":"2026-01-26","start_minute":540,"duration_minutes":0}`, http.StatusBadRequest, "invalid_duration"},
		{"unknown resource", `{"resource_id":"ghost","date":"2026-01-26","start_minute":540,"duration_minutes":30}`, http.StatusNotFound, "resource_not_found"},
		{"weekend", `{"resource_id":"room-a","date":"2026-01-31","start_minute":540,"duration_minutes":30}`, http.StatusConflict, "resource_unavailable_on_weekday"},
		{"before opening", `{"resource_id":"room-a","date":"2026-01-26","start_minute":480,"duration_minutes":30}`, http.StatusConflict, "outside_working_hours"},
		{"past closing", `{"resource_id":"room-a","date":"2026-01-26","start_minute":1000,"duration_minutes":60}`, http.StatusConflict, "outside_working_hours"},
	}
	for _, tc := range cases {
		rw := doJSON(t, h.Collection, http.MethodPost, "/v1/bookings", tc.body)
		if rw.Code != tc.wantStatus {
			t.Errorf("%s: expected %d, got %d (%s)", tc.name, tc.wantStatus, rw.Code, rw.Body.String())
			continue
		}
		if resp := decodeError(t, rw); resp.Code != tc.wantCode {
			t.Errorf("%s: expected code %q, got %q", tc.name, tc.wantCode, resp.Code)
		}
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	h := newTestHandler()
	rw := doJSON(t, h.Collection, http.MethodPost, "/v1/bookings",
		`{"resource_id":"room-a","date":"2026-01-26","start_minute":540,"duration_minutes":60}`)
	if rw.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", rw.Code)
	}

	rw = doJSON(t, h.Item, http.MethodPost, "/v1/bookings/1/complete", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	if resp := decodeBooking(t, rw); resp.Status != "completed" {
		t.Fatalf("expected completed, got %s", resp.Status)
	}

	// Terminal states reject further transitions.
	rw = doJSON(t, h.Item, http.MethodPost, "/v1/bookings/1/cancel", "")
	if rw.Code != http.StatusConflict {
		t.Fatalf("cancel after complete: expected 409, got %d", rw.Code)
	}
	if resp := decodeError(t, rw); resp.Code != "invalid_state_transition" {
		t.Fatalf("expected invalid_state_transition, got %q", resp.Code)
	}

	rw = doJSON(t, h.Item, http.MethodGet, "/v1/bookings/1", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rw.Code)
	}
	if resp := decodeBooking(t, rw); resp.Status != "completed" {
		t.Fatalf("expected completed after read-back, got %s", resp.Status)
	}
}

func TestItem_Routing(t *testing.T) {
	h := newTestHandler()

	if rw := doJSON(t, h.Item, http.MethodPost, "/v1/bookings/abc/cancel", ""); rw.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: expected 400, got %d", rw.Code)
	}
	if rw := doJSON(t, h.Item, http.MethodPost, "/v1/bookings/1/archive", ""); rw.Code != http.StatusNotFound {
		t.Errorf("unknown action: expected 404, got %d", rw.Code)
	}
	if rw := doJSON(t, h.Item, http.MethodGet, "/v1/bookings/1/cancel", ""); rw.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on action: expected 405, got %d", rw.Code)
	}
	if rw := doJSON(t, h.Item, http.MethodPost, "/v1/bookings/99/cancel", ""); rw.Code != http.StatusNotFound {
		t.Errorf("unknown booking: expected 404, got %d", rw.Code)
	}
	if rw := doJSON(t, h.Collection, http.MethodPut, "/v1/bookings", "{}"); rw.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT collection: expected 405, got %d", rw.Code)
	}
}

func TestList_DayView(t *testing.T) {
	h := newTestHandler()
	for _, body := range []string{
		`{"resource_id":"room-a","date":"2026-01-26","start_minute":660,"duration_minutes":30}`,
		`{"resource_id":"room-a","date":"2026-01-26","start_minute":540,"duration_minutes":60}`,
	} {
		if rw := doJSON(t, h.Collection, http.MethodPost, "/v1/bookings", body); rw.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d", rw.Code)
		}
	}
	// Cancel the 11:00 booking; it must drop out of the listing.
	if rw := doJSON(t, h.Item, http.MethodPost, "/v1/bookings/1/cancel", ""); rw.Code != http.StatusOK {
		t.Fatalf("cancel failed: %d", rw.Code)
	}

	rw := doJSON(t, h.Collection, http.MethodGet, "/v1/bookings?resource_id=room-a&date=2026-01-26", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rw.Code)
	}
	var items []bookingResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 || items[0].StartMinute != 540 {
		t.Fatalf("unexpected listing: %+v", items)
	}

	if rw := doJSON(t, h.Collection, http.MethodGet, "/v1/bookings?resource_id=ghost&date=2026-01-26", ""); rw.Code != http.StatusNotFound {
		t.Errorf("unknown resource: expected 404, got %d", rw.Code)
	}
	if rw := doJSON(t, h.Collection, http.MethodGet, "/v1/bookings?date=2026-01-26", ""); rw.Code != http.StatusBadRequest {
		t.Errorf("missing resource_id: expected 400, got %d", rw.Code)
	}
}

func TestSlots_Endpoint(t *testing.T) {
	h := newTestHandler()
	for _, body := range []string{
		`{"resource_id":"room-a","date":"2026-01-26","start_minute":540,"duration_minutes":60}`,
		`{"resource_id":"room-a","date":"2026-01-26","start_minute":600,"duration_minutes":30}`,
	} {
		if rw := doJSON(t, h.Collection, http.MethodPost, "/v1/bookings", body); rw.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d", rw.Code)
		}
	}

	rw := doJSON(t, h.Slots, http.MethodGet, "/v1/slots?resource_id=room-a&date=2026-01-26&min_duration=60", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("slots: expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	var items []slotItem
	if err := json.Unmarshal(rw.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one gap, got %+v", items)
	}
	got := items[0]
	if got.StartMinute != 630 || got.EndMinute != 1020 {
		t.Fatalf("expected [630,1020), got [%d,%d)", got.StartMinute, got.EndMinute)
	}
	if got.Start != "10:30" || got.End != "17:00" {
		t.Fatalf("expected 10:30..17:00, got %s..%s", got.Start, got.End)
	}

	// Saturday yields an empty array, not an error.
	rw = doJSON(t, h.Slots, http.MethodGet, "/v1/slots?resource_id=room-a&date=2026-01-31&min_duration=60", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("weekend slots: expected 200, got %d", rw.Code)
	}
	if body := strings.TrimSpace(rw.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}

	if rw := doJSON(t, h.Slots, http.MethodGet, "/v1/slots?resource_id=room-a&date=2026-01-26", ""); rw.Code != http.StatusBadRequest {
		t.Errorf("missing min_duration: expected 400, got %d", rw.Code)
	}
	if rw := doJSON(t, h.Slots, http.MethodGet, "/v1/slots?resource_id=room-a&date=2026-01-26&min_duration=-5", ""); rw.Code != http.StatusBadRequest {
		t.Errorf("negative min_duration: expected 400, got %d", rw.Code)
	}
}
