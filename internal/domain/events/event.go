package events

import "time"

// Event is a published fact about a checkout attempt
type Event interface {
	ID() string
	Type() string
	AggregateID() string
	AggregateType() string
	Version() int
	Data() interface{}
	Metadata() EventMetadata
	Timestamp() time.Time
}

type EventMetadata struct {
	CorrelationID string `json:"correlation_id"`
	TraceID       string `json:"trace_id"`
	Source        string `json:"source"`
}

type BaseEvent struct {
	eventID       string
	eventType     string
	aggregateID   string
	aggregateType string
	version       int
	data          interface{}
	metadata      EventMetadata
	timestamp     time.Time
}

func (e *BaseEvent) ID() string {
	return e.eventID
}

func (e *BaseEvent) Type() string {
	return e.eventType
}

func (e *BaseEvent) AggregateID() string {
	return e.aggregateID
}

func (e *BaseEvent) AggregateType() string {
	return e.aggregateType
}

func (e *BaseEvent) Version() int {
	return e.version
}

func (e *BaseEvent) Data() interface{} {
	return e.data
}

func (e *BaseEvent) Metadata() EventMetadata {
	return e.metadata
}

func (e *BaseEvent) Timestamp() time.Time {
	return e.timestamp
}

// NewBaseEvent rebuilds an event read back from the bus or the error log
func NewBaseEvent(eventID, eventType, aggregateID, aggregateType string, version int, data interface{}, metadata EventMetadata, timestamp time.Time) *BaseEvent {
	return &BaseEvent{
		eventID:       eventID,
		eventType:     eventType,
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		version:       version,
		data:          data,
		metadata:      metadata,
		timestamp:     timestamp,
	}
}
