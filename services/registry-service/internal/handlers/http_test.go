package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/md-rashed-zaman/slotbook/services/registry-service/internal/storage"
)

func TestValidateHours(t *testing.T) {
	cases := []struct {
		name   string
		days   []bool
		start  int
		end    int
		wantOK bool
	}{
		{"weekdays nine to five", []bool{false, true, true, true, true, true, false}, 540, 1020, true},
		{"full day window", []bool{true, true, true, true, true, true, true}, 0, 1440, true},
		{"no working days still valid", []bool{false, false, false, false, false, false, false}, 540, 1020, true},
		{"six day flags", []bool{true, true, true, true, true, true}, 540, 1020, false},
		{"eight day flags", make([]bool, 8), 540, 1020, false},
		{"negative start", []bool{false, true, true, true, true, true, false}, -1, 1020, false},
		{"start at midnight end", []bool{false, true, true, true, true, true, false}, 1440, 1441, false},
		{"end before start", []bool{false, true, true, true, true, true, false}, 600, 540, false},
		{"end equals start", []bool{false, true, true, true, true, true, false}, 540, 540, false},
		{"end past midnight", []bool{false, true, true, true, true, true, false}, 540, 1441, false},
	}
	for _, tc := range cases {
		err := validateHours(tc.days, tc.start, tc.end)
		if tc.wantOK && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.wantOK && err == nil {
			t.Errorf("%s: expected validation error, got nil", tc.name)
		}
	}
}

func TestFlattenWeek(t *testing.T) {
	var week [7]storage.DayHours
	for wd := 0; wd <= 6; wd++ {
		week[wd] = storage.DayHours{Weekday: wd}
	}
	week[1] = storage.DayHours{Weekday: 1, IsWorking: true, StartMinute: 480, EndMinute: 960}
	week[3] = storage.DayHours{Weekday: 3, IsWorking: true, StartMinute: 480, EndMinute: 960}

	days, start, end := flattenWeek(week)
	if days != [7]bool{false, true, false, true, false, false, false} {
		t.Fatalf("unexpected day flags: %v", days)
	}
	if start != 480 || end != 960 {
		t.Fatalf("expected window 480-960, got %d-%d", start, end)
	}
}

func TestFlattenWeek_NoWorkingDays(t *testing.T) {
	var week [7]storage.DayHours
	for wd := 0; wd <= 6; wd++ {
		week[wd] = storage.DayHours{Weekday: wd}
	}
	days, start, end := flattenWeek(week)
	if days != [7]bool{} {
		t.Fatalf("expected all days off, got %v", days)
	}
	if start != 0 || end != 0 {
		t.Fatalf("expected zero window, got %d-%d", start, end)
	}
}

func TestItem_Routing(t *testing.T) {
	h := New(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cases := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"empty id", http.MethodGet, "/v1/resources/", http.StatusNotFound},
		{"too deep", http.MethodGet, "/v1/resources/abc/hours/extra", http.StatusNotFound},
		{"unknown sub", http.MethodGet, "/v1/resources/abc/schedule", http.StatusNotFound},
		{"delete resource", http.MethodDelete, "/v1/resources/abc", http.StatusMethodNotAllowed},
		{"post hours", http.MethodPost, "/v1/resources/abc/hours", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		h.Item(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestCollection_MethodGuard(t *testing.T) {
	h := New(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := httptest.NewRequest(http.MethodDelete, "/v1/resources", nil)
	rec := httptest.NewRecorder()
	h.Collection(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
