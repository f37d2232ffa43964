package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/infrastructure/eventbus"

	"github.com/segmentio/kafka-go"
)

type wireEntry struct {
	ID             string          `json:"id"`
	Event          json.RawMessage `json:"event"`
	FailureReason  string          `json:"failure_reason"`
	FailureCount   int             `json:"failure_count"`
	FirstFailureAt time.Time       `json:"first_failure_at"`
	LastAttemptAt  time.Time       `json:"last_attempt_at"`
	Source         string          `json:"source"`
	OriginalTopic  string          `json:"original_topic"`
	RetryHistory   []string        `json:"retry_history"`
}

// KafkaQueue keeps DLQ entries on a dedicated Kafka topic
type KafkaQueue struct {
	brokers []string
	topic   string
	writer  *kafka.Writer
	logger  logger.Logger
}

func NewKafkaQueue(brokers []string, topic string, l logger.Logger) *KafkaQueue {
	return &KafkaQueue{
		brokers: brokers,
		topic:   topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		logger: l,
	}
}

func (q *KafkaQueue) Publish(ctx context.Context, entry Entry) error {
	value, err := EncodeEntry(entry)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(entry.Event.AggregateID()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "dlq_entry_id", Value: []byte(entry.ID)},
			{Key: "failure_reason", Value: []byte(entry.FailureReason)},
		},
	}
	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write DLQ entry %s: %w", entry.ID, err)
	}
	return nil
}

// Subscribe reads the DLQ topic as groupID until ctx is done
func (q *KafkaQueue) Subscribe(ctx context.Context, groupID string, handler Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     q.brokers,
		Topic:       q.topic,
		GroupID:     groupID,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})

	go func() {
		defer reader.Close()

		for {
			msg, err := reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				q.logger.Warn("Error fetching DLQ entry", logger.Field{Key: "error", Value: err})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			entry, err := DecodeEntry(msg.Value)
			if err != nil {
				q.logger.Error("Error decoding DLQ entry", logger.Field{Key: "offset", Value: msg.Offset}, logger.Field{Key: "error", Value: err})
			} else if err := handler(ctx, entry); err != nil {
				q.logger.Error("Error handling DLQ entry", logger.Field{Key: "dlq_entry_id", Value: entry.ID}, logger.Field{Key: "error", Value: err})
			}

			if err := reader.CommitMessages(ctx, msg); err != nil {
				q.logger.Warn("Error committing DLQ entry", logger.Field{Key: "offset", Value: msg.Offset}, logger.Field{Key: "error", Value: err})
			}
		}
	}()

	return nil
}

func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}

func EncodeEntry(entry Entry) ([]byte, error) {
	event, err := eventbus.MarshalEvent(entry.Event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode DLQ entry %s: %w", entry.ID, err)
	}

	return json.Marshal(wireEntry{
		ID:             entry.ID,
		Event:          event,
		FailureReason:  entry.FailureReason,
		FailureCount:   entry.FailureCount,
		FirstFailureAt: entry.FirstFailureAt,
		LastAttemptAt:  entry.LastAttemptAt,
		Source:         entry.Source,
		OriginalTopic:  entry.OriginalTopic,
		RetryHistory:   entry.RetryHistory,
	})
}

func DecodeEntry(value []byte) (Entry, error) {
	var w wireEntry
	if err := json.Unmarshal(value, &w); err != nil {
		return Entry{}, fmt.Errorf("failed to decode DLQ entry: %w", err)
	}

	event, err := eventbus.UnmarshalEvent(w.Event)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to decode DLQ entry %s: %w", w.ID, err)
	}

	return Entry{
		ID:             w.ID,
		Event:          event,
		FailureReason:  w.FailureReason,
		FailureCount:   w.FailureCount,
		FirstFailureAt: w.FirstFailureAt,
		LastAttemptAt:  w.LastAttemptAt,
		Source:         w.Source,
		OriginalTopic:  w.OriginalTopic,
		RetryHistory:   w.RetryHistory,
	}, nil
}
