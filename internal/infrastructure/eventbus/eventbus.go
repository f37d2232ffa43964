package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/domain/events"

	"github.com/segmentio/kafka-go"
)

const (
	defaultBrokerAddress = "localhost:19092"
	readTimeout          = 10 * time.Second
	writeTimeout         = 10 * time.Second
)

type kafkaEventBus struct {
	brokers   []string
	logger    logger.Logger
	writers   map[string]*kafka.Writer
	readers   map[string]*kafka.Reader
	writersMu sync.RWMutex
	readersMu sync.RWMutex
	running   bool
	mu        sync.RWMutex
}

func newKafkaEventBus(brokers []string, l logger.Logger) (EventBus, error) {
	if len(brokers) == 0 {
		brokers = []string{defaultBrokerAddress}
	}

	return &kafkaEventBus{
		brokers: brokers,
		logger:  l,
		writers: make(map[string]*kafka.Writer),
		readers: make(map[string]*kafka.Reader),
		running: true,
	}, nil
}

func (b *kafkaEventBus) Publish(ctx context.Context, topic string, event events.Event) error {
	if !b.isRunning() {
		return fmt.Errorf("event bus is closed")
	}

	key, err := PartitionKey(event)
	if err != nil {
		return fmt.Errorf("failed to calculate partition: %w", err)
	}

	value, err := MarshalEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   key,
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type())},
			{Key: "event_id", Value: []byte(event.ID())},
		},
		Time: event.Timestamp(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := b.writer(topic).WriteMessages(writeCtx, message); err != nil {
		return fmt.Errorf("failed to write message to topic %s: %w", topic, err)
	}
	return nil
}

func (b *kafkaEventBus) SubscribeWithGroupID(ctx context.Context, topic, groupID string, handler EventHandler) error {
	if groupID == "" {
		return fmt.Errorf("consumer group is required for topic %s", topic)
	}

	reader := b.reader(topic, groupID)
	go b.consume(ctx, reader, handler)
	return nil
}

// consume commits every message after the handler ran, including undecodable ones.
// Failed handling is logged; redelivery is left to the DLQ.
func (b *kafkaEventBus) consume(ctx context.Context, reader *kafka.Reader, handler EventHandler) {
	for {
		if ctx.Err() != nil || !b.isRunning() {
			return
		}

		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		message, err := reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			b.logger.Warn("Error fetching message", logger.Field{Key: "topic", Value: reader.Config().Topic}, logger.Field{Key: "error", Value: err})
			time.Sleep(100 * time.Millisecond)
			continue
		}

		event, err := UnmarshalEvent(message.Value)
		if err != nil {
			b.logger.Error("Error unmarshaling event", logger.Field{Key: "offset", Value: message.Offset}, logger.Field{Key: "error", Value: err})
		} else if err := handler(ctx, event); err != nil {
			b.logger.Error("Error handling event",
				logger.Field{Key: "event_type", Value: event.Type()},
				logger.Field{Key: "event_id", Value: event.ID()},
				logger.Field{Key: "error", Value: err})
		}

		if err := reader.CommitMessages(ctx, message); err != nil {
			b.logger.Warn("Error committing message", logger.Field{Key: "offset", Value: message.Offset}, logger.Field{Key: "error", Value: err})
		}
	}
}

func (b *kafkaEventBus) writer(topic string) *kafka.Writer {
	b.writersMu.RLock()
	if w, ok := b.writers[topic]; ok {
		b.writersMu.RUnlock()
		return w
	}
	b.writersMu.RUnlock()

	b.writersMu.Lock()
	defer b.writersMu.Unlock()

	if w, ok := b.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(b.brokers...),
		Topic:                  topic,
		Balancer:               AggregateBalancer{},
		WriteTimeout:           writeTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	b.writers[topic] = w
	return w
}

func (b *kafkaEventBus) reader(topic, groupID string) *kafka.Reader {
	key := topic + ":" + groupID

	b.readersMu.Lock()
	defer b.readersMu.Unlock()

	if r, ok := b.readers[key]; ok {
		return r
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		StartOffset: kafka.FirstOffset,
	})
	b.readers[key] = r
	return r
}

func (b *kafkaEventBus) isRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

func (b *kafkaEventBus) Close() error {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()

	var errs []error

	b.writersMu.Lock()
	for topic, w := range b.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close writer for topic %s: %w", topic, err))
		}
	}
	b.writersMu.Unlock()

	b.readersMu.Lock()
	for key, r := range b.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close reader %s: %w", key, err))
		}
	}
	b.readersMu.Unlock()

	return errors.Join(errs...)
}
