package availability

import (
	"sort"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// FreeSlots returns the maximal free gaps of at least minDuration minutes
// inside the working window, given the busy intervals already booked that
// day. Gaps are emitted in ascending order and never overlap. Returned
// gaps are maximal: callers slice them into concrete start times if they
// want fixed-size slots.
func FreeSlots(window model.Interval, busy []model.Interval, minDuration int) []model.Interval {
	if window.End <= window.Start {
		return nil
	}
	if minDuration < 1 {
		minDuration = 1
	}

	merged := mergeBusy(window, busy)

	var free []model.Interval
	cursor := window.Start
	for _, b := range merged {
		if b.Start-cursor >= minDuration {
			free = append(free, model.Interval{Start: cursor, End: b.Start})
		}
		if b.End > cursor {
			cursor = b.End
		}
	}
	if window.End-cursor >= minDuration {
		free = append(free, model.Interval{Start: cursor, End: window.End})
	}
	return free
}

// mergeBusy clips the busy intervals to the window, sorts them by start
// and coalesces overlapping or touching runs, so the cursor walk above can
// assume disjoint ascending input. The ledger never stores overlapping
// bookings for one resource, but the walk stays correct on any input.
func mergeBusy(window model.Interval, busy []model.Interval) []model.Interval {
	clipped := make([]model.Interval, 0, len(busy))
	for _, b := range busy {
		if b.End <= window.Start || b.Start >= window.End {
			continue
		}
		if b.Start < window.Start {
			b.Start = window.Start
		}
		if b.End > window.End {
			b.End = window.End
		}
		if b.End > b.Start {
			clipped = append(clipped, b)
		}
	}
	sort.SliceStable(clipped, func(i, j int) bool {
		return clipped[i].Start < clipped[j].Start
	})

	merged := clipped[:0]
	for _, b := range clipped {
		if n := len(merged); n > 0 && b.Start <= merged[n-1].End {
			if b.End > merged[n-1].End {
				merged[n-1].End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged
}
