package outbox

const (
	EventUserRegistered = "auth.user.registered.v1"
	EventAudit          = "auth.audit.v1"
)

type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
