package outcomes

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/common/metrics"
	"wcpay-checkout/internal/domain/events"
	"wcpay-checkout/internal/infrastructure/dlq"
)

const (
	counterPublished = metrics.OutcomesPublished
	counterRetried   = metrics.OutcomesRetried
	counterDLQ       = metrics.OutcomesToDLQ

	dlqWriteTimeout = 5 * time.Second
)

// RetryPolicy bounds how hard the publisher tries before giving an event to the DLQ
type RetryPolicy struct {
	MaxAttempts int
	// AttemptTimeout bounds a single bus write; zero leaves it to the caller's context
	AttemptTimeout time.Duration
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	Jitter         bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		AttemptTimeout: 2 * time.Second,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// next returns the delay after d
func (p RetryPolicy) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * p.Multiplier)
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d >= 10 {
		d += time.Duration(rand.Int63n(int64(d / 10)))
	}
	return d
}

// EventPublisher is the part of the event bus the publisher needs
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Event) error
}

// Publisher delivers outcome events with bounded retry. Events that cannot be delivered go to the DLQ.
type Publisher struct {
	bus     EventPublisher
	queue   dlq.Queue
	topic   string
	source  string
	policy  RetryPolicy
	logger  logger.Logger
	metrics metrics.Collector
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewPublisher(bus EventPublisher, queue dlq.Queue, topic, source string, policy RetryPolicy, l logger.Logger, m metrics.Collector) *Publisher {
	return &Publisher{
		bus:     bus,
		queue:   queue,
		topic:   topic,
		source:  source,
		policy:  policy,
		logger:  l,
		metrics: m,
		sleep:   sleepContext,
	}
}

// Publish returns nil once the event is on the bus or in the DLQ. It fails only when both are unreachable.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	var history []string
	firstFailure := time.Time{}
	delay := p.policy.InitialDelay
	reason := dlq.ReasonMaxRetriesExceeded

	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		err := p.publishOnce(ctx, event)
		if err == nil {
			p.metrics.IncrementCounter(counterPublished)
			return nil
		}

		if firstFailure.IsZero() {
			firstFailure = time.Now()
		}
		history = append(history, fmt.Sprintf("attempt %d: %v", attempt, err))

		if attempt == p.policy.MaxAttempts {
			break
		}

		p.metrics.IncrementCounter(counterRetried)
		p.logger.Warn("Retrying outcome event",
			logger.Field{Key: "event_id", Value: event.ID()},
			logger.Field{Key: "attempt", Value: attempt},
			logger.Field{Key: "delay", Value: delay.String()},
			logger.Field{Key: "error", Value: err})

		if err := p.sleep(ctx, delay); err != nil {
			reason = dlq.ReasonContextCancelled
			break
		}
		delay = p.policy.next(delay)
	}

	return p.toDLQ(ctx, event, reason, firstFailure, history)
}

func (p *Publisher) publishOnce(ctx context.Context, event events.Event) error {
	if p.policy.AttemptTimeout <= 0 {
		return p.bus.Publish(ctx, p.topic, event)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.policy.AttemptTimeout)
	defer cancel()
	return p.bus.Publish(attemptCtx, p.topic, event)
}

// toDLQ writes the entry even when ctx is already done, bounded by dlqWriteTimeout
func (p *Publisher) toDLQ(ctx context.Context, event events.Event, reason string, firstFailure time.Time, history []string) error {
	entry := dlq.NewEntry(event, reason, p.source, p.topic, firstFailure, history)

	dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dlqWriteTimeout)
	defer cancel()

	if err := p.queue.Publish(dlqCtx, entry); err != nil {
		p.logger.Error("Failed to publish to DLQ",
			logger.Field{Key: "event_id", Value: event.ID()},
			logger.Field{Key: "error", Value: err})
		return fmt.Errorf("outcome event %s lost: %w", event.ID(), errors.Join(errors.New(reason), err))
	}

	p.metrics.IncrementCounter(counterDLQ)
	p.logger.Warn("Outcome event routed to DLQ",
		logger.Field{Key: "event_id", Value: event.ID()},
		logger.Field{Key: "order_id", Value: event.AggregateID()},
		logger.Field{Key: "reason", Value: reason})
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
