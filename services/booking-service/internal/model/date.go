package model

import (
	"errors"
	"fmt"
)

// ErrInvalidDate covers both malformed date strings and dates that do not
// exist in the calendar, such as 2025-02-30.
var ErrInvalidDate = errors.New("invalid date")

// Date identifies one calendar day. It deliberately carries plain ints
// instead of a time.Time so that weekday and validity are computed
// arithmetically and can never depend on the host timezone or locale.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate parses a YYYY-MM-DD string and rejects dates that do not
// exist in the proleptic Gregorian calendar.
func ParseDate(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, ErrInvalidDate
	}
	var d Date
	if _, err := fmt.Sscanf(s, "%4d-%2d-%2d", &d.Year, &d.Month, &d.Day); err != nil {
		return Date{}, ErrInvalidDate
	}
	if !d.Valid() {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}

// Valid reports whether the date names a real calendar day, including the
// leap-year rule for February 29th.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= daysInMonth(d.Year, d.Month)
}

// Weekday computes the day of week with Sakamoto's method. Sunday is 0,
// matching the weekly template layout.
func (d Date) Weekday() Weekday {
	t := [12]int{0, 3, 2, 5, 0, 3, 5, 1, 4, 6, 2, 4}
	y := d.Year
	if d.Month < 3 {
		y--
	}
	return Weekday((y + y/4 - y/100 + y/400 + t[d.Month-1] + d.Day) % 7)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func daysInMonth(year, month int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
