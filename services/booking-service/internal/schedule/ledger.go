package schedule

import (
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

type dayKey struct {
	resource string
	date     model.Date
}

// Ledger owns every booking record. The arena maps ids to records and is
// the single source of truth; byDay keeps per resource-and-date id lists
// sorted by start minute so day reads never rescan the arena. Cancelled
// bookings stay in both structures and are filtered on read, which keeps
// cancellation O(1) and preserves insertion order for audit listings.
//
// Ledger is not safe for concurrent use; Service serializes access.
type Ledger struct {
	nextID int64
	arena  map[int64]*model.Booking
	byDay  map[dayKey][]int64
}

func NewLedger() *Ledger {
	return &Ledger{
		nextID: 1,
		arena:  make(map[int64]*model.Booking),
		byDay:  make(map[dayKey][]int64),
	}
}

// Insert assigns the next id and stores the booking. Conflict checking is
// the caller's job; Insert never rejects.
func (l *Ledger) Insert(b model.Booking) model.Booking {
	b.ID = l.nextID
	l.nextID++
	l.place(b)
	return b
}

// place stores a record that already carries an id and threads it into the
// day index, keeping the index sorted by start minute. Equal starts keep
// insertion order.
func (l *Ledger) place(b model.Booking) {
	stored := b
	l.arena[b.ID] = &stored

	key := dayKey{resource: b.ResourceID, date: b.Date}
	ids := l.byDay[key]
	pos := len(ids)
	for i, id := range ids {
		if l.arena[id].Interval.Start > b.Interval.Start {
			pos = i
			break
		}
	}
	ids = append(ids, 0)
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = b.ID
	l.byDay[key] = ids
}

// Find returns a copy of the booking, so callers can never mutate ledger
// state behind its back.
func (l *Ledger) Find(id int64) (model.Booking, bool) {
	b, ok := l.arena[id]
	if !ok {
		return model.Booking{}, false
	}
	return *b, true
}

// SetStatus updates the lifecycle state of an existing booking. Legality
// of the transition is checked by Service before calling.
func (l *Ledger) SetStatus(id int64, status model.Status, at time.Time) error {
	b, ok := l.arena[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = at
	return nil
}

// BookingsFor returns copies of the resource's non-cancelled bookings for
// the date, ordered by start minute ascending with ties in insertion
// order.
func (l *Ledger) BookingsFor(resourceID string, date model.Date) []model.Booking {
	ids := l.byDay[dayKey{resource: resourceID, date: date}]
	out := make([]model.Booking, 0, len(ids))
	for _, id := range ids {
		b := l.arena[id]
		if b.Status == model.StatusCancelled {
			continue
		}
		out = append(out, *b)
	}
	return out
}

// intervalsFor is BookingsFor stripped to the busy intervals, for the slot
// finder.
func (l *Ledger) intervalsFor(resourceID string, date model.Date) []model.Interval {
	ids := l.byDay[dayKey{resource: resourceID, date: date}]
	out := make([]model.Interval, 0, len(ids))
	for _, id := range ids {
		b := l.arena[id]
		if b.Status == model.StatusCancelled {
			continue
		}
		out = append(out, b.Interval)
	}
	return out
}

// conflicts reports whether the candidate interval overlaps any
// non-cancelled booking for the resource and date. Linear scan over the
// day's bookings, stopping at the first hit.
func (l *Ledger) conflicts(resourceID string, date model.Date, candidate model.Interval) bool {
	for _, id := range l.byDay[dayKey{resource: resourceID, date: date}] {
		b := l.arena[id]
		if b.Status == model.StatusCancelled {
			continue
		}
		if candidate.Overlaps(b.Interval) {
			return true
		}
	}
	return false
}

// Restore replaces the ledger contents with records hydrated from the
// durable mirror and advances nextID past the highest restored id.
func (l *Ledger) Restore(bookings []model.Booking) {
	l.arena = make(map[int64]*model.Booking, len(bookings))
	l.byDay = make(map[dayKey][]int64)
	l.nextID = 1
	for _, b := range bookings {
		l.place(b)
		if b.ID >= l.nextID {
			l.nextID = b.ID + 1
		}
	}
}

// Count returns the number of records in the arena, cancelled included.
func (l *Ledger) Count() int {
	return len(l.arena)
}
