package outcomes

import (
	"context"
	"errors"
	"testing"
	"time"

	"wcpay-checkout/internal/common/configs"
	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/common/metrics"
	"wcpay-checkout/internal/domain/events"
	"wcpay-checkout/internal/infrastructure/dlq"
	"wcpay-checkout/internal/infrastructure/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, topic string, event events.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func (m *MockEventBus) SubscribeWithGroupID(ctx context.Context, topic, groupID string, handler eventbus.EventHandler) error {
	args := m.Called(ctx, topic, groupID, handler)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockErrorStore struct {
	mock.Mock
}

func (m *MockErrorStore) PersistDLQEntry(ctx context.Context, entry dlq.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func completedEvent() events.Event {
	return events.NewPaymentOutcome(events.TypePaymentCompleted, events.PaymentOutcomeData{
		OrderID:    42,
		IntentID:   "pi_1",
		Amount:     1000,
		Currency:   "usd",
		FinalState: "CompletedState",
	}, events.EventMetadata{Source: configs.ServiceNameCheckout})
}

func newTestPublisher(bus EventPublisher, queue dlq.Queue, m metrics.Collector) (*Publisher, *[]time.Duration) {
	policy := RetryPolicy{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond, MaxDelay: 15 * time.Millisecond, Multiplier: 2}
	p := NewPublisher(bus, queue, configs.TopicPaymentOutcomes, configs.ServiceNameCheckout, policy, logger.NewMockLogger(), m)

	var sleeps []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return p, &sleeps
}

func TestPublisher_PublishesFirstTime(t *testing.T) {
	bus := new(MockEventBus)
	queue := dlq.NewMemoryQueue()
	collector := metrics.NewMockCollector()
	event := completedEvent()
	bus.On("Publish", mock.Anything, configs.TopicPaymentOutcomes, event).Return(nil).Once()

	p, sleeps := newTestPublisher(bus, queue, collector)

	require.NoError(t, p.Publish(context.Background(), event))
	assert.Empty(t, *sleeps)
	assert.Empty(t, queue.Entries())
	assert.Equal(t, int64(1), collector.GetCounter(counterPublished))
	bus.AssertExpectations(t)
}

func TestPublisher_RetriesThenSucceeds(t *testing.T) {
	bus := new(MockEventBus)
	queue := dlq.NewMemoryQueue()
	collector := metrics.NewMockCollector()
	event := completedEvent()
	bus.On("Publish", mock.Anything, configs.TopicPaymentOutcomes, event).Return(errors.New("broker unavailable")).Once()
	bus.On("Publish", mock.Anything, configs.TopicPaymentOutcomes, event).Return(nil).Once()

	p, sleeps := newTestPublisher(bus, queue, collector)

	require.NoError(t, p.Publish(context.Background(), event))
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, *sleeps)
	assert.Equal(t, int64(1), collector.GetCounter(counterRetried))
	assert.Empty(t, queue.Entries())
}

func TestPublisher_RoutesToDLQAfterMaxAttempts(t *testing.T) {
	bus := new(MockEventBus)
	queue := dlq.NewMemoryQueue()
	collector := metrics.NewMockCollector()
	event := completedEvent()
	bus.On("Publish", mock.Anything, configs.TopicPaymentOutcomes, event).Return(errors.New("broker unavailable"))

	p, sleeps := newTestPublisher(bus, queue, collector)

	require.NoError(t, p.Publish(context.Background(), event))

	bus.AssertNumberOfCalls(t, "Publish", 3)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, *sleeps)

	entries := queue.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, dlq.ReasonMaxRetriesExceeded, entries[0].FailureReason)
	assert.Equal(t, 3, entries[0].FailureCount)
	assert.Equal(t, event.ID(), entries[0].Event.ID())
	assert.Equal(t, configs.TopicPaymentOutcomes, entries[0].OriginalTopic)
	assert.Equal(t, int64(1), collector.GetCounter(counterDLQ))
}

func TestPublisher_CancelledContext(t *testing.T) {
	bus := new(MockEventBus)
	queue := dlq.NewMemoryQueue()
	event := completedEvent()
	bus.On("Publish", mock.Anything, configs.TopicPaymentOutcomes, event).Return(context.Canceled)

	p, _ := newTestPublisher(bus, queue, metrics.NewMockCollector())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Publish(ctx, event))

	bus.AssertNumberOfCalls(t, "Publish", 1)
	entries := queue.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, dlq.ReasonContextCancelled, entries[0].FailureReason)
}

func TestPublisher_DLQUnavailable(t *testing.T) {
	bus := new(MockEventBus)
	queue := dlq.NewMemoryQueue()
	require.NoError(t, queue.Close())
	event := completedEvent()
	bus.On("Publish", mock.Anything, configs.TopicPaymentOutcomes, event).Return(errors.New("broker unavailable"))

	p, _ := newTestPublisher(bus, queue, metrics.NewMockCollector())

	err := p.Publish(context.Background(), event)

	assert.ErrorContains(t, err, "lost")
}

func TestRetryPolicy_Next(t *testing.T) {
	policy := RetryPolicy{MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 200*time.Millisecond, policy.next(100*time.Millisecond))
	assert.Equal(t, time.Second, policy.next(800*time.Millisecond))

	policy.Jitter = true
	d := policy.next(100 * time.Millisecond)
	assert.GreaterOrEqual(t, d, 200*time.Millisecond)
	assert.Less(t, d, 220*time.Millisecond)
}

func TestService_HandleOutcome(t *testing.T) {
	collector := metrics.NewMockCollector()
	mockLogger := logger.NewMockLogger()
	svc := NewService(new(MockEventBus), dlq.NewMemoryQueue(), nil, collector, mockLogger)
	ctx := context.Background()

	require.NoError(t, svc.HandleOutcome(ctx, completedEvent()))
	require.NoError(t, svc.HandleOutcome(ctx, events.NewPaymentOutcome(events.TypePaymentFailed,
		events.PaymentOutcomeData{OrderID: 43, FinalState: "PaymentErrorState", Reason: "declined"}, events.EventMetadata{})))
	require.NoError(t, svc.HandleOutcome(ctx, events.NewBaseEvent("e1", "Unknown", "1", "Order", 1, nil, events.EventMetadata{}, time.Now())))

	assert.Equal(t, int64(1), collector.GetCounter("payments_completed_total"))
	assert.Equal(t, int64(1), collector.GetCounter("payments_failed_total"))
	assert.Len(t, mockLogger.Entries("INFO"), 2)
	assert.Len(t, mockLogger.Entries("WARN"), 1)
}

func TestService_HandleDLQEntry(t *testing.T) {
	store := new(MockErrorStore)
	collector := metrics.NewMockCollector()
	svc := NewService(new(MockEventBus), dlq.NewMemoryQueue(), store, collector, logger.NewMockLogger())
	entry := dlq.NewEntry(completedEvent(), dlq.ReasonMaxRetriesExceeded, configs.ServiceNameCheckout, configs.TopicPaymentOutcomes, time.Now(), []string{"x"})

	store.On("PersistDLQEntry", mock.Anything, entry).Return(nil).Once()
	require.NoError(t, svc.HandleDLQEntry(context.Background(), entry))

	store.On("PersistDLQEntry", mock.Anything, entry).Return(errors.New("db down")).Once()
	assert.Error(t, svc.HandleDLQEntry(context.Background(), entry))

	assert.Equal(t, int64(2), collector.GetCounter("dlq_events_total"))
	store.AssertExpectations(t)
}

func TestService_Start(t *testing.T) {
	bus := new(MockEventBus)
	queue := dlq.NewMemoryQueue()
	store := new(MockErrorStore)
	svc := NewService(bus, queue, store, metrics.NewMockCollector(), logger.NewMockLogger())
	ctx := context.Background()

	bus.On("SubscribeWithGroupID", ctx, configs.TopicPaymentOutcomes, configs.ServiceNameOutcomes, mock.Anything).Return(nil)
	store.On("PersistDLQEntry", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.Start(ctx))
	require.NoError(t, queue.Publish(ctx, dlq.NewEntry(completedEvent(), dlq.ReasonPublishFailed, "svc", "topic", time.Now(), nil)))

	bus.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "PersistDLQEntry", 1)
}

func blockUntilDone(args mock.Arguments) {
	<-args.Get(0).(context.Context).Done()
}

func TestPublisher_AttemptTimeout(t *testing.T) {
	bus := new(MockEventBus)
	queue := dlq.NewMemoryQueue()
	event := completedEvent()
	bus.On("Publish", mock.Anything, configs.TopicPaymentOutcomes, event).Run(blockUntilDone).Return(context.DeadlineExceeded)

	p, _ := newTestPublisher(bus, queue, metrics.NewMockCollector())
	p.policy.AttemptTimeout = 20 * time.Millisecond

	start := time.Now()
	require.NoError(t, p.Publish(context.Background(), event))

	assert.Less(t, time.Since(start), time.Second)
	bus.AssertNumberOfCalls(t, "Publish", 3)
	require.Len(t, queue.Entries(), 1)
}

func TestAsyncPublisher_ReturnsBeforeDelivery(t *testing.T) {
	bus := new(MockEventBus)
	queue := dlq.NewMemoryQueue()
	collector := metrics.NewMockCollector()
	event := completedEvent()
	bus.On("Publish", mock.Anything, configs.TopicPaymentOutcomes, event).Run(blockUntilDone).Return(context.DeadlineExceeded)

	inner, _ := newTestPublisher(bus, queue, collector)
	inner.policy.AttemptTimeout = 50 * time.Millisecond
	ap := NewAsyncPublisher(inner, 8, 1, logger.NewMockLogger(), collector)

	start := time.Now()
	require.NoError(t, ap.Publish(context.Background(), event))
	assert.Less(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, int64(1), collector.GetCounter(metrics.OutcomesQueued))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ap.Close(ctx))

	entries := queue.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, event.ID(), entries[0].Event.ID())
	assert.Equal(t, dlq.ReasonMaxRetriesExceeded, entries[0].FailureReason)
}

func TestAsyncPublisher_FullBufferGoesToDLQ(t *testing.T) {
	queue := dlq.NewMemoryQueue()
	collector := metrics.NewMockCollector()
	inner, _ := newTestPublisher(new(MockEventBus), queue, collector)

	// no workers, so the single buffer slot stays taken
	ap := &AsyncPublisher{
		inner:   inner,
		events:  make(chan events.Event, 1),
		logger:  logger.NewMockLogger(),
		metrics: collector,
	}

	first, second := completedEvent(), completedEvent()
	require.NoError(t, ap.Publish(context.Background(), first))
	require.NoError(t, ap.Publish(context.Background(), second))

	entries := queue.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID(), entries[0].Event.ID())
	assert.Equal(t, dlq.ReasonPublisherBusy, entries[0].FailureReason)

	require.NoError(t, ap.Close(context.Background()))
	assert.ErrorIs(t, ap.Publish(context.Background(), completedEvent()), ErrPublisherClosed)
}
