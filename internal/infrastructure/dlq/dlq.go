package dlq

import (
	"context"
	"fmt"
	"time"

	"wcpay-checkout/internal/domain/events"

	"github.com/google/uuid"
)

// Failure reasons recorded on DLQ entries
const (
	ReasonMaxRetriesExceeded = "MAX_RETRIES_EXCEEDED"
	ReasonPublishFailed      = "PUBLISH_FAILED"
	ReasonContextCancelled   = "CONTEXT_CANCELLED"
	ReasonPublisherBusy      = "PUBLISHER_BUSY"
)

// Entry is an event that could not be delivered
type Entry struct {
	ID             string
	Event          events.Event
	FailureReason  string
	FailureCount   int
	FirstFailureAt time.Time
	LastAttemptAt  time.Time
	Source         string
	OriginalTopic  string
	RetryHistory   []string
}

// NewEntry builds an entry for event. history holds one line per failed attempt.
func NewEntry(event events.Event, reason, source, topic string, firstFailureAt time.Time, history []string) Entry {
	return Entry{
		ID:             fmt.Sprintf("dlq_%s", uuid.New().String()),
		Event:          event,
		FailureReason:  reason,
		FailureCount:   len(history),
		FirstFailureAt: firstFailureAt,
		LastAttemptAt:  time.Now(),
		Source:         source,
		OriginalTopic:  topic,
		RetryHistory:   history,
	}
}

type Handler func(ctx context.Context, entry Entry) error

// Queue stores undeliverable events for later inspection
type Queue interface {
	Publish(ctx context.Context, entry Entry) error
	Subscribe(ctx context.Context, groupID string, handler Handler) error
	Close() error
}
