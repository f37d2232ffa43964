package outcomes

import (
	"context"

	"wcpay-checkout/internal/common/configs"
	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/common/metrics"
	"wcpay-checkout/internal/domain/events"
	"wcpay-checkout/internal/infrastructure/dlq"
	"wcpay-checkout/internal/infrastructure/eventbus"
)

var outcomeCounters = map[string]string{
	events.TypePaymentCompleted:              metrics.PaymentsCompleted,
	events.TypePaymentAuthenticationRequired: metrics.PaymentsAuthenticationRequired,
	events.TypeDuplicatePaymentPrevented:     metrics.DuplicatePaymentsPrevented,
	events.TypePaymentFailed:                 metrics.PaymentsFailed,
}

// ErrorStore keeps DLQ entries for operators
type ErrorStore interface {
	PersistDLQEntry(ctx context.Context, entry dlq.Entry) error
}

// Service counts payment outcomes and records DLQ entries
type Service struct {
	bus      eventbus.EventBus
	queue    dlq.Queue
	dbErrors ErrorStore
	metrics  metrics.Collector
	logger   logger.Logger
}

// NewService builds the consumer. dbErrors may be nil, in which case DLQ entries are only counted and logged.
func NewService(bus eventbus.EventBus, queue dlq.Queue, dbErrors ErrorStore, m metrics.Collector, l logger.Logger) *Service {
	return &Service{
		bus:      bus,
		queue:    queue,
		dbErrors: dbErrors,
		metrics:  m,
		logger:   l,
	}
}

// Start subscribes to the outcome topic and the DLQ
func (s *Service) Start(ctx context.Context) error {
	if err := s.bus.SubscribeWithGroupID(ctx, configs.TopicPaymentOutcomes, configs.ServiceNameOutcomes, s.HandleOutcome); err != nil {
		return err
	}
	return s.queue.Subscribe(ctx, configs.ServiceNameOutcomes, s.HandleDLQEntry)
}

func (s *Service) HandleOutcome(ctx context.Context, event events.Event) error {
	counter, ok := outcomeCounters[event.Type()]
	if !ok {
		s.logger.Warn("Ignoring unknown event", logger.Field{Key: "event_type", Value: event.Type()})
		return nil
	}

	s.metrics.IncrementCounter(counter)

	fields := []logger.Field{
		{Key: "event_type", Value: event.Type()},
		{Key: "order_id", Value: event.AggregateID()},
	}
	if data, ok := event.Data().(events.PaymentOutcomeData); ok {
		fields = append(fields, logger.Field{Key: "final_state", Value: data.FinalState})
		if data.Reason != "" {
			fields = append(fields, logger.Field{Key: "reason", Value: data.Reason})
		}
	}
	s.logger.Info("Payment outcome recorded", fields...)
	return nil
}

func (s *Service) HandleDLQEntry(ctx context.Context, entry dlq.Entry) error {
	s.metrics.IncrementCounter(metrics.DLQEntriesReceived)
	s.logger.Warn("Processing DLQ entry",
		logger.Field{Key: "dlq_entry_id", Value: entry.ID},
		logger.Field{Key: "failure_reason", Value: entry.FailureReason})

	if s.dbErrors == nil {
		return nil
	}

	if err := s.dbErrors.PersistDLQEntry(ctx, entry); err != nil {
		s.logger.Error("Failed to persist DLQ entry to error_logs",
			logger.Field{Key: "dlq_entry_id", Value: entry.ID},
			logger.Field{Key: "error", Value: err})
		return err
	}

	s.logger.Info("DLQ entry persisted to error_logs",
		logger.Field{Key: "dlq_entry_id", Value: entry.ID},
		logger.Field{Key: "order_id", Value: entry.Event.AggregateID()})
	return nil
}
