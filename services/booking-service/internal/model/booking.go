package model

import (
	"fmt"
	"time"
)

// Status is the booking lifecycle state. Scheduled is the only state that
// admits a transition; Completed and Cancelled are terminal.
type Status int

const (
	StatusScheduled Status = iota
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether no further transition is legal from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus maps the wire form back to a Status; used when hydrating
// from the durable mirror.
func ParseStatus(raw string) (Status, error) {
	switch raw {
	case "scheduled":
		return StatusScheduled, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return 0, fmt.Errorf("unknown booking status %q", raw)
	}
}

// Booking reserves one resource for one interval on one calendar day.
type Booking struct {
	ID         int64
	ResourceID string
	Date       Date
	Interval   Interval
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
