package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"wcpay-checkout/internal/domain/events"
)

type envelope struct {
	ID            string               `json:"id"`
	Type          string               `json:"type"`
	AggregateID   string               `json:"aggregate_id"`
	AggregateType string               `json:"aggregate_type"`
	Version       int                  `json:"version"`
	Data          json.RawMessage      `json:"data"`
	Metadata      events.EventMetadata `json:"metadata"`
	Timestamp     time.Time            `json:"timestamp"`
}

// MarshalEvent serializes the complete event, data included
func MarshalEvent(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event.Data())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return json.Marshal(envelope{
		ID:            event.ID(),
		Type:          event.Type(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Version:       event.Version(),
		Data:          data,
		Metadata:      event.Metadata(),
		Timestamp:     event.Timestamp(),
	})
}

// UnmarshalEvent decodes an event written by MarshalEvent. Outcome events get typed data;
// anything else is decoded as a generic map.
func UnmarshalEvent(value []byte) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	var data interface{}
	if events.IsOutcomeType(env.Type) {
		var outcome events.PaymentOutcomeData
		if err := json.Unmarshal(env.Data, &outcome); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s data: %w", env.Type, err)
		}
		data = outcome
	} else {
		var generic map[string]interface{}
		if err := json.Unmarshal(env.Data, &generic); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
		data = generic
	}

	return events.NewBaseEvent(
		env.ID,
		env.Type,
		env.AggregateID,
		env.AggregateType,
		env.Version,
		data,
		env.Metadata,
		env.Timestamp,
	), nil
}
