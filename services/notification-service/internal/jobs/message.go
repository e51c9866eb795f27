package jobs

import "fmt"

const (
	TopicBookingCreated   = "booking.created.v1"
	TopicBookingCancelled = "booking.cancelled.v1"
)

func SubjectFor(eventType string) string {
	switch eventType {
	case TopicBookingCreated:
		return "Booking confirmed"
	case TopicBookingCancelled:
		return "Booking cancelled"
	default:
		return "Booking update"
	}
}

func ConfirmationBody(bookingID int64, resourceID string, date string, startMinute, endMinute int) string {
	return fmt.Sprintf("Booking %d confirmed for %s on %s, %s to %s.",
		bookingID, resourceID, date, minuteClock(startMinute), minuteClock(endMinute))
}

func CancellationBody(bookingID int64, resourceID string, date string, startMinute, endMinute int) string {
	return fmt.Sprintf("Booking %d for %s on %s, %s to %s, was cancelled. The slot is free again.",
		bookingID, resourceID, date, minuteClock(startMinute), minuteClock(endMinute))
}

func minuteClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
