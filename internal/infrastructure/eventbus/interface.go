package eventbus

import (
	"context"

	"wcpay-checkout/internal/domain/events"
)

type EventHandler func(ctx context.Context, event events.Event) error

// EventBus publishes and consumes events by topic
type EventBus interface {
	Publish(ctx context.Context, topic string, event events.Event) error
	// SubscribeWithGroupID consumes topic as part of the consumer group until ctx is done
	SubscribeWithGroupID(ctx context.Context, topic, groupID string, handler EventHandler) error
	Close() error
}
