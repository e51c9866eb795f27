package outbox

// Topic names follow event-per-topic: the Kafka topic equals EventType.
const (
	EventBookingCreated   = "booking.created.v1"
	EventBookingCompleted = "booking.completed.v1"
	EventBookingCancelled = "booking.cancelled.v1"
)

// Event is the domain event envelope written to the outbox table inside
// the same transaction as the booking mirror write.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
