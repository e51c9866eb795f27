package schedule

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/registry"
)

// newTestService seeds a static registry with room-a working Monday
// through Friday, 09:00 to 17:00.
func newTestService() *Service {
	reg := registry.NewStatic()
	reg.Add("room-a", model.DefaultTemplate())
	return NewService(reg)
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestService_CreateAndConflict(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")

	// 09:00 for one hour.
	a, err := svc.Create(ctx, "room-a", monday, 540, 60)
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	if a.ID != 1 {
		t.Fatalf("expected id 1, got %d", a.ID)
	}
	if a.Status != model.StatusScheduled {
		t.Fatalf("expected scheduled, got %s", a.Status)
	}

	// 09:30 overlaps A.
	if _, err := svc.Create(ctx, "room-a", monday, 570, 30); !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("expected ErrBookingConflict, got %v", err)
	}

	// 10:00 touches A's end and is legal.
	c, err := svc.Create(ctx, "room-a", monday, 600, 30)
	if err != nil {
		t.Fatalf("create C: %v", err)
	}
	if c.ID != 2 {
		t.Fatalf("rejected attempt must not consume an id, got %d", c.ID)
	}

	slots, err := svc.FreeSlots(ctx, "room-a", monday, 60)
	if err != nil {
		t.Fatalf("FreeSlots: %v", err)
	}
	if len(slots) != 1 || slots[0] != (model.Interval{Start: 630, End: 1020}) {
		t.Fatalf("expected exactly [630,1020), got %v", slots)
	}
}

func TestService_ValidationOrder(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")
	saturday := mustDate(t, "2026-01-31")

	// Duration is checked before resource existence.
	if _, err := svc.Create(ctx, "ghost", monday, 540, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := svc.Create(ctx, "ghost", monday, 540, -30); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	// Unknown resource beats weekday and window checks.
	if _, err := svc.Create(ctx, "ghost", saturday, 0, 10); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
	// Non-working weekday beats the window check.
	if _, err := svc.Create(ctx, "room-a", saturday, 0, 10); !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestService_RejectsOutsideWindow(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")

	cases := []struct {
		name     string
		start    int
		duration int
	}{
		{"before opening", 480, 60},
		{"straddles opening", 530, 30},
		{"runs past close", 1000, 30},
		{"starts at close", 1020, 15},
		{"negative start", -30, 60},
		{"past midnight", 1430, 30},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, "room-a", monday, tc.start, tc.duration); !errors.Is(err, ErrOutsideWindow) {
			t.Errorf("%s: expected ErrOutsideWindow, got %v", tc.name, err)
		}
	}

	// Both boundaries inclusive: 09:00-10:00 and 16:00-17:00 fit.
	if _, err := svc.Create(ctx, "room-a", monday, 540, 60); err != nil {
		t.Errorf("booking at opening should fit: %v", err)
	}
	if _, err := svc.Create(ctx, "room-a", monday, 960, 60); err != nil {
		t.Errorf("booking ending at close should fit: %v", err)
	}
}

func TestService_Lifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")

	b, err := svc.Create(ctx, "room-a", monday, 540, 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done, err := svc.Complete(ctx, b.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}

	// Terminal states admit no further transitions, in either direction.
	if _, err := svc.Complete(ctx, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("re-complete: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Cancel(ctx, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel after complete: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.Complete(ctx, 9999); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("unknown id: expected ErrBookingNotFound, got %v", err)
	}
}

func TestService_CompletedStillBlocks(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")

	b, _ := svc.Create(ctx, "room-a", monday, 540, 60)
	if _, err := svc.Complete(ctx, b.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := svc.Create(ctx, "room-a", monday, 540, 60); !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("completed bookings still occupy their interval, got %v", err)
	}
}

func TestService_CancelFreesInterval(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")

	b, _ := svc.Create(ctx, "room-a", monday, 540, 60)
	if _, err := svc.Cancel(ctx, b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("re-cancel: expected ErrInvalidTransition, got %v", err)
	}

	// The interval is bookable again and the day looks empty.
	if _, err := svc.Create(ctx, "room-a", monday, 540, 60); err != nil {
		t.Fatalf("rebooking a cancelled interval: %v", err)
	}
	listed, err := svc.Bookings(ctx, "room-a", monday)
	if err != nil {
		t.Fatalf("bookings: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("cancelled booking must not be listed, got %v", listed)
	}
}

func TestService_BookingsRequiresKnownResource(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")

	if _, err := svc.Bookings(ctx, "ghost", monday); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestService_FreeSlotsEdgeCases(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")
	saturday := mustDate(t, "2026-01-31")

	slots, err := svc.FreeSlots(ctx, "room-a", monday, 60)
	if err != nil {
		t.Fatalf("FreeSlots on empty day: %v", err)
	}
	if len(slots) != 1 || slots[0] != (model.Interval{Start: 540, End: 1020}) {
		t.Fatalf("empty day should yield the whole window, got %v", slots)
	}

	slots, err = svc.FreeSlots(ctx, "room-a", saturday, 60)
	if err != nil {
		t.Fatalf("FreeSlots on a day off: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("non-working day should yield no slots, got %v", slots)
	}

	if _, err := svc.FreeSlots(ctx, "room-a", monday, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := svc.FreeSlots(ctx, "ghost", monday, 60); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestService_RandomizedNeverOverlaps(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")

	rng := rand.New(rand.NewSource(42))
	accepted := 0
	for i := 0; i < 500; i++ {
		start := 540 + rng.Intn(480)
		duration := 1 + rng.Intn(120)
		if _, err := svc.Create(ctx, "room-a", monday, start, duration); err == nil {
			accepted++
		}
	}
	if accepted == 0 {
		t.Fatal("expected at least one accepted booking")
	}

	listed, err := svc.Bookings(ctx, "room-a", monday)
	if err != nil {
		t.Fatalf("bookings: %v", err)
	}
	if len(listed) != accepted {
		t.Fatalf("expected %d listed bookings, got %d", accepted, len(listed))
	}
	for i := 1; i < len(listed); i++ {
		prev, cur := listed[i-1], listed[i]
		if cur.Interval.Start < prev.Interval.Start {
			t.Fatalf("bookings out of order at %d: %v before %v", i, prev.Interval, cur.Interval)
		}
		if prev.Interval.Overlaps(cur.Interval) {
			t.Fatalf("accepted bookings overlap: %v and %v", prev.Interval, cur.Interval)
		}
	}
}

func TestService_ConcurrentCreatesSingleWinner(t *testing.T) {
	svc := newTestService()
	monday := mustDate(t, "2026-01-26")

	const racers = 32
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), "room-a", monday, 540, 60)
			errs[n] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrBookingConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestService_ConcurrentDistinctSlotsAllSucceed(t *testing.T) {
	svc := newTestService()
	monday := mustDate(t, "2026-01-26")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), "room-a", monday, 540+slot*60, 60)
			errs[slot] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("slot %d: %v", i, err)
		}
	}
	listed, err := svc.Bookings(context.Background(), "room-a", monday)
	if err != nil {
		t.Fatalf("bookings: %v", err)
	}
	if len(listed) != n {
		t.Fatalf("expected %d bookings, got %d", n, len(listed))
	}
}

func TestService_RestoreContinuesIDSequence(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	monday := mustDate(t, "2026-01-26")

	restored := []model.Booking{
		{ID: 7, ResourceID: "room-a", Date: monday, Interval: model.NewInterval(540, 60), Status: model.StatusScheduled},
		{ID: 9, ResourceID: "room-a", Date: monday, Interval: model.NewInterval(660, 60), Status: model.StatusCancelled},
	}
	svc.Restore(restored)

	// Restored scheduled bookings still defend their intervals.
	if _, err := svc.Create(ctx, "room-a", monday, 570, 30); !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("expected ErrBookingConflict against restored booking, got %v", err)
	}

	// Cancelled restored bookings do not block, and ids continue past the
	// highest restored one.
	b, err := svc.Create(ctx, "room-a", monday, 660, 60)
	if err != nil {
		t.Fatalf("create after restore: %v", err)
	}
	if b.ID != 10 {
		t.Fatalf("expected id 10, got %d", b.ID)
	}
}
