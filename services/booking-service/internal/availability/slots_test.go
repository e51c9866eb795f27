package availability

import (
	"testing"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

func ivs(pairs ...int) []model.Interval {
	out := make([]model.Interval, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Interval{Start: pairs[i], End: pairs[i+1]})
	}
	return out
}

func assertSlots(t *testing.T, got, want []model.Interval) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d gaps, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("gap %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestFreeSlots_EmptyDay(t *testing.T) {
	window := model.Interval{Start: 540, End: 1020}
	got := FreeSlots(window, nil, 60)
	assertSlots(t, got, ivs(540, 1020))
}

func TestFreeSlots_BackToBackMorning(t *testing.T) {
	// Bookings at [09:00,10:00) and [10:00,10:30) leave one 60-minute gap,
	// the remainder of the day from 10:30.
	window := model.Interval{Start: 540, End: 1020}
	busy := ivs(540, 600, 600, 630)
	got := FreeSlots(window, busy, 60)
	assertSlots(t, got, ivs(630, 1020))
}

func TestFreeSlots_SkipsShortGaps(t *testing.T) {
	window := model.Interval{Start: 540, End: 720}
	// Gap [540,570) is 30 minutes, too short for 45; gap [630,720) is 90.
	busy := ivs(570, 630)
	got := FreeSlots(window, busy, 45)
	assertSlots(t, got, ivs(630, 720))
}

func TestFreeSlots_FullyBooked(t *testing.T) {
	window := model.Interval{Start: 540, End: 660}
	busy := ivs(540, 600, 600, 660)
	if got := FreeSlots(window, busy, 1); len(got) != 0 {
		t.Fatalf("expected no gaps, got %v", got)
	}
}

func TestFreeSlots_MinDurationLargerThanWindow(t *testing.T) {
	window := model.Interval{Start: 540, End: 600}
	if got := FreeSlots(window, nil, 61); len(got) != 0 {
		t.Fatalf("expected no gaps, got %v", got)
	}
}

func TestFreeSlots_UnsortedInput(t *testing.T) {
	window := model.Interval{Start: 540, End: 1020}
	busy := ivs(900, 960, 540, 600, 700, 730)
	got := FreeSlots(window, busy, 30)
	assertSlots(t, got, ivs(600, 700, 730, 900, 960, 1020))
}

func TestFreeSlots_MergesOverlappingEntries(t *testing.T) {
	// Overlapping busy entries must not produce phantom gaps or move the
	// cursor backwards.
	window := model.Interval{Start: 540, End: 1020}
	busy := ivs(540, 660, 600, 630, 620, 700)
	got := FreeSlots(window, busy, 15)
	assertSlots(t, got, ivs(700, 1020))
}

func TestFreeSlots_ClipsToWindow(t *testing.T) {
	window := model.Interval{Start: 540, End: 1020}
	// Entries outside or straddling the window only count where they
	// intersect it.
	busy := ivs(0, 300, 500, 570, 1000, 1100)
	got := FreeSlots(window, busy, 30)
	assertSlots(t, got, ivs(570, 1000))
}

func TestFreeSlots_GapPartition(t *testing.T) {
	// With minDuration 1, free gaps plus busy time tile the whole window.
	window := model.Interval{Start: 540, End: 1020}
	busy := ivs(560, 580, 580, 640, 800, 830)
	got := FreeSlots(window, busy, 1)
	assertSlots(t, got, ivs(540, 560, 640, 800, 830, 1020))

	total := 0
	for _, g := range got {
		total += g.Duration()
	}
	busyTotal := (580 - 560) + (640 - 580) + (830 - 800)
	if total+busyTotal != window.Duration() {
		t.Fatalf("free %d + busy %d != window %d", total, busyTotal, window.Duration())
	}
}
