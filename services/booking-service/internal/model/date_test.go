package model

import (
	"errors"
	"testing"
)

func TestParseDate_Weekdays(t *testing.T) {
	cases := []struct {
		in   string
		want Weekday
	}{
		{"2026-01-26", Monday},
		{"2026-02-01", Sunday},
		{"2026-02-28", Saturday},
		{"2024-02-29", Thursday},
		{"2000-02-29", Tuesday},
		{"1970-01-01", Thursday},
		{"2100-03-01", Monday},
		{"1999-12-31", Friday},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tc.in, err)
		}
		if got := d.Weekday(); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestParseDate_RejectsInvalid(t *testing.T) {
	cases := []string{
		"",
		"2026-1-5",
		"2026/01/05",
		"20260105",
		"2026-00-10",
		"2026-13-10",
		"2026-01-00",
		"2026-01-32",
		"2026-02-29",
		"2025-02-29",
		"1900-02-29",
		"2026-04-31",
		"not-a-date",
	}
	for _, in := range cases {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q): expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestParseDate_LeapYears(t *testing.T) {
	// Divisible by 4 is a leap year, except centuries, except every 400th.
	if _, err := ParseDate("2024-02-29"); err != nil {
		t.Errorf("2024 should be a leap year: %v", err)
	}
	if _, err := ParseDate("2000-02-29"); err != nil {
		t.Errorf("2000 should be a leap year: %v", err)
	}
	if _, err := ParseDate("1900-02-29"); err == nil {
		t.Error("1900 should not be a leap year")
	}
	if _, err := ParseDate("2023-02-29"); err == nil {
		t.Error("2023 should not be a leap year")
	}
}

func TestDate_String(t *testing.T) {
	d := Date{Year: 2026, Month: 3, Day: 7}
	if got := d.String(); got != "2026-03-07" {
		t.Fatalf("expected 2026-03-07, got %s", got)
	}
}
