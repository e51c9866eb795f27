package schedule

import "errors"

// Every rejected operation maps to exactly one of these sentinels. Callers
// branch with errors.Is and translate to transport codes at the boundary;
// the engine itself never logs or wraps them with request context.
var (
	ErrInvalidDuration     = errors.New("duration must be a positive number of minutes")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrResourceUnavailable = errors.New("resource does not work on that weekday")
	ErrOutsideWindow       = errors.New("interval falls outside the working window")
	ErrBookingConflict     = errors.New("interval overlaps an existing booking")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidTransition   = errors.New("booking is already in a terminal status")
)
