package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/registry"
)

// Service is the scheduling engine. It owns the ledger and serializes all
// access through one RWMutex, so the conflict check and the insert that
// follows it are a single atomic step and two racing requests for the
// same slot can never both succeed. Reads take the shared lock.
//
// Registry lookups happen outside the lock; templates are external
// read-only data and do not participate in ledger consistency.
type Service struct {
	registry registry.Provider

	mu     sync.RWMutex
	ledger *Ledger
}

func NewService(reg registry.Provider) *Service {
	return &Service{
		registry: reg,
		ledger:   NewLedger(),
	}
}

// Create books the resource for [startMinute, startMinute+durationMinutes)
// on the given date. Checks run in a fixed order so callers always see the
// most specific rejection: duration, resource existence, weekday, window,
// then conflicts.
func (s *Service) Create(ctx context.Context, resourceID string, date model.Date, startMinute, durationMinutes int) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err
	}
	if durationMinutes <= 0 {
		return model.Booking{}, ErrInvalidDuration
	}

	tpl, err := s.lookupTemplate(ctx, resourceID)
	if err != nil {
		return model.Booking{}, err
	}
	if !tpl.Working(date.Weekday()) {
		return model.Booking{}, ErrResourceUnavailable
	}

	iv := model.NewInterval(startMinute, durationMinutes)
	if !iv.Within(tpl.Window()) {
		return model.Booking{}, ErrOutsideWindow
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger.conflicts(resourceID, date, iv) {
		return model.Booking{}, ErrBookingConflict
	}

	now := time.Now().UTC()
	return s.ledger.Insert(model.Booking{
		ResourceID: resourceID,
		Date:       date,
		Interval:   iv,
		Status:     model.StatusScheduled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}), nil
}

// Complete marks a scheduled booking as carried out.
func (s *Service) Complete(ctx context.Context, id int64) (model.Booking, error) {
	return s.transition(ctx, id, model.StatusCompleted)
}

// Cancel releases a scheduled booking's interval. The record remains in
// the ledger but stops blocking other bookings.
func (s *Service) Cancel(ctx context.Context, id int64) (model.Booking, error) {
	return s.transition(ctx, id, model.StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id int64, to model.Status) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.ledger.Find(id)
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	// Completed and Cancelled are terminal; re-cancelling a cancelled
	// booking is rejected the same way as completing it.
	if b.Status != model.StatusScheduled {
		return model.Booking{}, ErrInvalidTransition
	}
	if err := s.ledger.SetStatus(id, to, time.Now().UTC()); err != nil {
		return model.Booking{}, err
	}
	b, _ = s.ledger.Find(id)
	return b, nil
}

// Find returns one booking by id.
func (s *Service) Find(ctx context.Context, id int64) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.ledger.Find(id)
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, nil
}

// Bookings lists the resource's non-cancelled bookings for one day,
// ordered by start minute.
func (s *Service) Bookings(ctx context.Context, resourceID string, date model.Date) ([]model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ok, err := s.registry.Exists(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("registry lookup: %w", err)
	}
	if !ok {
		return nil, ErrResourceNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.BookingsFor(resourceID, date), nil
}

// FreeSlots lists the maximal free gaps of at least minDuration minutes in
// the resource's working window on the given date. A day the resource does
// not work yields no gaps rather than an error.
func (s *Service) FreeSlots(ctx context.Context, resourceID string, date model.Date, minDuration int) ([]model.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if minDuration <= 0 {
		return nil, ErrInvalidDuration
	}

	tpl, err := s.lookupTemplate(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !tpl.Working(date.Weekday()) {
		return []model.Interval{}, nil
	}

	s.mu.RLock()
	busy := s.ledger.intervalsFor(resourceID, date)
	s.mu.RUnlock()

	return availability.FreeSlots(tpl.Window(), busy, minDuration), nil
}

// Restore replaces the ledger with records hydrated from the durable
// mirror. Called once at boot, before the service takes traffic.
func (s *Service) Restore(bookings []model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Restore(bookings)
}

// Count reports how many records the ledger holds, cancelled included.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Count()
}

func (s *Service) lookupTemplate(ctx context.Context, resourceID string) (model.WeeklyTemplate, error) {
	ok, err := s.registry.Exists(ctx, resourceID)
	if err != nil {
		return model.WeeklyTemplate{}, fmt.Errorf("registry lookup: %w", err)
	}
	if !ok {
		return model.WeeklyTemplate{}, ErrResourceNotFound
	}
	tpl, err := s.registry.WeeklyTemplate(ctx, resourceID)
	if err != nil {
		return model.WeeklyTemplate{}, fmt.Errorf("registry template: %w", err)
	}
	return tpl, nil
}
