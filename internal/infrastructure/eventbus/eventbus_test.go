package eventbus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/domain/events"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcomeEvent(orderID int64) events.Event {
	return events.NewPaymentOutcome(events.TypePaymentFailed, events.PaymentOutcomeData{
		OrderID:     orderID,
		Amount:      1000,
		Currency:    "usd",
		FinalState:  "PaymentErrorState",
		Transitions: []string{"InitialState", "VerifiedState", "PaymentErrorState"},
		Reason:      "Your card was declined.",
	}, events.EventMetadata{CorrelationID: "corr_1", Source: "checkout-service"})
}

func TestCodec_RoundTrip(t *testing.T) {
	event := outcomeEvent(42)

	value, err := MarshalEvent(event)
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(value)
	require.NoError(t, err)

	assert.Equal(t, event.ID(), decoded.ID())
	assert.Equal(t, event.Type(), decoded.Type())
	assert.Equal(t, "42", decoded.AggregateID())
	assert.Equal(t, event.Metadata(), decoded.Metadata())
	assert.True(t, event.Timestamp().Equal(decoded.Timestamp()))

	data, ok := decoded.Data().(events.PaymentOutcomeData)
	require.True(t, ok)
	assert.Equal(t, event.Data(), data)
}

func TestCodec_UnknownTypeDecodesAsMap(t *testing.T) {
	value := []byte(`{"id":"e1","type":"SomethingElse","aggregate_id":"7","data":{"a":1}}`)

	decoded, err := UnmarshalEvent(value)

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, decoded.Data())
}

func TestCodec_InvalidPayload(t *testing.T) {
	_, err := UnmarshalEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"type":"PaymentFailed","data":"oops"}`))
	assert.Error(t, err)
}

func TestPartitionKey(t *testing.T) {
	key, err := PartitionKey(outcomeEvent(42))
	require.NoError(t, err)
	assert.Equal(t, []byte("42"), key)

	_, err = PartitionKey(events.NewBaseEvent("e1", "Other", "", "Order", 1, nil, events.EventMetadata{}, time.Now()))
	assert.Error(t, err)
}

func TestAggregateBalancer(t *testing.T) {
	balancer := AggregateBalancer{}
	partitions := []int{0, 1, 2, 3, 4, 5}

	first := balancer.Balance(kafka.Message{Key: []byte("42")}, partitions...)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, balancer.Balance(kafka.Message{Key: []byte("42")}, partitions...))
	}
	assert.Contains(t, partitions, first)

	seen := make(map[int]bool)
	for id := 0; id < 100; id++ {
		seen[balancer.Balance(kafka.Message{Key: []byte(fmt.Sprint(id))}, partitions...)] = true
	}
	assert.Greater(t, len(seen), 1)

	assert.Equal(t, 7, balancer.Balance(kafka.Message{Key: []byte("42")}, 7))
	assert.Equal(t, 0, balancer.Balance(kafka.Message{Key: []byte("42")}))
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus, err := newKafkaEventBus([]string{"localhost:1"}, logger.NewMockLogger())
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	err = bus.Publish(context.Background(), "topic", outcomeEvent(42))

	assert.EqualError(t, err, "event bus is closed")
}

func TestEventBus_SubscribeRequiresGroup(t *testing.T) {
	bus, err := newKafkaEventBus(nil, logger.NewMockLogger())
	require.NoError(t, err)
	defer bus.Close()

	err = bus.SubscribeWithGroupID(context.Background(), "topic", "", nil)

	assert.Error(t, err)
}
