package schedule

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

func ledgerBooking(resource string, date model.Date, start, duration int) model.Booking {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	return model.Booking{
		ResourceID: resource,
		Date:       date,
		Interval:   model.NewInterval(start, duration),
		Status:     model.StatusScheduled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestLedger_InsertAssignsSequentialIDs(t *testing.T) {
	l := NewLedger()
	date := model.Date{Year: 2026, Month: 1, Day: 26}

	first := l.Insert(ledgerBooking("room-a", date, 540, 60))
	second := l.Insert(ledgerBooking("room-a", date, 660, 60))
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if l.Count() != 2 {
		t.Fatalf("expected 2 records, got %d", l.Count())
	}
}

func TestLedger_BookingsForSortedWithStableTies(t *testing.T) {
	l := NewLedger()
	date := model.Date{Year: 2026, Month: 1, Day: 26}

	// Inserted out of order; two entries share a start minute.
	l.Insert(ledgerBooking("room-a", date, 700, 30))
	l.Insert(ledgerBooking("room-a", date, 540, 30))
	tieFirst := l.Insert(ledgerBooking("room-a", date, 600, 15))
	tieSecond := l.Insert(ledgerBooking("room-a", date, 600, 15))

	got := l.BookingsFor("room-a", date)
	starts := []int{540, 600, 600, 700}
	if len(got) != len(starts) {
		t.Fatalf("expected %d bookings, got %d", len(starts), len(got))
	}
	for i, want := range starts {
		if got[i].Interval.Start != want {
			t.Errorf("position %d: expected start %d, got %d", i, want, got[i].Interval.Start)
		}
	}
	if got[1].ID != tieFirst.ID || got[2].ID != tieSecond.ID {
		t.Errorf("equal starts should keep insertion order, got ids %d then %d", got[1].ID, got[2].ID)
	}
}

func TestLedger_BookingsForFiltersCancelledAndOtherDays(t *testing.T) {
	l := NewLedger()
	monday := model.Date{Year: 2026, Month: 1, Day: 26}
	tuesday := model.Date{Year: 2026, Month: 1, Day: 27}

	keep := l.Insert(ledgerBooking("room-a", monday, 540, 60))
	dropped := l.Insert(ledgerBooking("room-a", monday, 660, 60))
	l.Insert(ledgerBooking("room-a", tuesday, 540, 60))
	l.Insert(ledgerBooking("room-b", monday, 540, 60))

	if err := l.SetStatus(dropped.ID, model.StatusCancelled, time.Now().UTC()); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	got := l.BookingsFor("room-a", monday)
	if len(got) != 1 || got[0].ID != keep.ID {
		t.Fatalf("expected only booking %d, got %v", keep.ID, got)
	}
	// The cancelled record still exists in the arena.
	if b, ok := l.Find(dropped.ID); !ok || b.Status != model.StatusCancelled {
		t.Fatalf("cancelled booking should remain findable, got %v ok=%v", b, ok)
	}
}

func TestLedger_SetStatusUnknownID(t *testing.T) {
	l := NewLedger()
	if err := l.SetStatus(99, model.StatusCompleted, time.Now().UTC()); err != ErrBookingNotFound {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestLedger_FindReturnsCopy(t *testing.T) {
	l := NewLedger()
	date := model.Date{Year: 2026, Month: 1, Day: 26}
	inserted := l.Insert(ledgerBooking("room-a", date, 540, 60))

	b, ok := l.Find(inserted.ID)
	if !ok {
		t.Fatal("expected to find booking")
	}
	b.Status = model.StatusCancelled

	again, _ := l.Find(inserted.ID)
	if again.Status != model.StatusScheduled {
		t.Fatal("mutating a returned copy must not touch ledger state")
	}
}

func TestLedger_RestoreAdvancesNextID(t *testing.T) {
	l := NewLedger()
	date := model.Date{Year: 2026, Month: 1, Day: 26}

	snapshot := []model.Booking{}
	for i, start := range []int{540, 660, 600} {
		b := ledgerBooking("room-a", date, start, 30)
		b.ID = int64(i + 1)
		snapshot = append(snapshot, b)
	}
	snapshot[1].Status = model.StatusCancelled

	l.Restore(snapshot)

	if l.Count() != 3 {
		t.Fatalf("expected 3 restored records, got %d", l.Count())
	}
	got := l.BookingsFor("room-a", date)
	if len(got) != 2 || got[0].Interval.Start != 540 || got[1].Interval.Start != 600 {
		t.Fatalf("unexpected restored day view: %v", got)
	}

	next := l.Insert(ledgerBooking("room-a", date, 900, 30))
	if next.ID != 4 {
		t.Fatalf("expected next id 4 after restore, got %d", next.ID)
	}
}
