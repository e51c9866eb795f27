package outbox

// Kafka topic per event type; the topic name equals EventType.
const (
	EventResourceCreated = "registry.resource.created.v1"
	EventHoursUpdated    = "registry.hours.updated.v1"
)

// Event is the envelope staged in the outbox table next to the registry
// write it describes.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
