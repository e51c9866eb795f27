package model

import "fmt"

// MinutesPerDay bounds every minute-of-day value used by the engine.
const MinutesPerDay = 24 * 60

// Interval is a half-open range of minutes within one day: Start is
// included, End is not. A booking from 09:00 to 10:00 is {540, 600}.
type Interval struct {
	Start int
	End   int
}

// NewInterval derives the half-open interval for a booking request:
// the end is the start plus the duration.
func NewInterval(startMinute, durationMinutes int) Interval {
	return Interval{Start: startMinute, End: startMinute + durationMinutes}
}

// Duration returns the interval length in minutes.
func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

// Overlaps reports whether the two intervals share at least one minute.
// Because both ends are half-open, intervals that merely touch, such as
// [540,600) and [600,630), do not overlap; back-to-back bookings are legal.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Within reports whether iv lies entirely inside window, boundaries
// included on both sides.
func (iv Interval) Within(window Interval) bool {
	return iv.Start >= window.Start && iv.End <= window.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", Clock(iv.Start), Clock(iv.End))
}

// Clock renders a minute of day as HH:MM.
func Clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
