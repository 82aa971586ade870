package outbound

import "time"

const (
	OutboxPending    = "PENDING"
	OutboxProcessing = "PROCESSING"
	OutboxPublished  = "PUBLISHED"
	OutboxFailed     = "FAILED"
)

// OutboxMessage is an event written in the same transaction as the state
// change it describes, published later by the relay.
type OutboxMessage struct {
	ID           int64
	EventID      string
	AggregateID  int64
	EventType    string
	EventVersion int32
	Topic        string
	Payload      []byte
	Status       string
	Attempts     int
	LastError    string
	TraceContext string // W3C trace context of the writing request, JSON encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
