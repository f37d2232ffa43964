package outcomes

import (
	"context"
	"errors"
	"sync"
	"time"

	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/common/metrics"
	"wcpay-checkout/internal/domain/events"
	"wcpay-checkout/internal/infrastructure/dlq"
)

var ErrPublisherClosed = errors.New("outcome publisher is closed")

// AsyncPublisher hands outcome events to background workers so a slow or unreachable bus never
// holds up the checkout response. When the buffer is full the event goes straight to the DLQ.
type AsyncPublisher struct {
	inner   *Publisher
	events  chan events.Event
	logger  logger.Logger
	metrics metrics.Collector

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncPublisher(inner *Publisher, buffer, workers int, l logger.Logger, m metrics.Collector) *AsyncPublisher {
	if buffer < 0 {
		buffer = 0
	}
	if workers < 1 {
		workers = 1
	}

	ap := &AsyncPublisher{
		inner:   inner,
		events:  make(chan events.Event, buffer),
		logger:  l,
		metrics: m,
	}

	for i := 0; i < workers; i++ {
		ap.wg.Add(1)
		go ap.run()
	}
	return ap
}

// Publish queues event and returns without waiting for delivery
func (ap *AsyncPublisher) Publish(ctx context.Context, event events.Event) error {
	ap.mu.RLock()
	defer ap.mu.RUnlock()

	if ap.closed {
		return ErrPublisherClosed
	}

	select {
	case ap.events <- event:
		ap.metrics.IncrementCounter(metrics.OutcomesQueued)
		return nil
	default:
		ap.logger.Warn("Outcome publisher busy, routing event to DLQ",
			logger.Field{Key: "event_id", Value: event.ID()})
		return ap.inner.toDLQ(ctx, event, dlq.ReasonPublisherBusy, time.Now(), nil)
	}
}

// Close stops accepting events and waits for queued ones until ctx is done
func (ap *AsyncPublisher) Close(ctx context.Context) error {
	ap.mu.Lock()
	if !ap.closed {
		ap.closed = true
		close(ap.events)
	}
	ap.mu.Unlock()

	done := make(chan struct{})
	go func() {
		ap.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ap *AsyncPublisher) run() {
	defer ap.wg.Done()

	for event := range ap.events {
		if err := ap.inner.Publish(context.Background(), event); err != nil {
			ap.logger.Error("Outcome event lost",
				logger.Field{Key: "event_id", Value: event.ID()},
				logger.Field{Key: "error", Value: err})
		}
	}
}
