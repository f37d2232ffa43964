package metrics

import "sync"

// Counter names shared by the checkout and outcomes services
const (
	StateTransitions = "payment_state_transitions_total"

	OutcomesPublished = "outcome_events_published_total"
	OutcomesRetried   = "outcome_events_retried_total"
	OutcomesToDLQ     = "outcome_events_dlq_total"
	OutcomesQueued    = "outcome_events_queued_total"

	PaymentsCompleted              = "payments_completed_total"
	PaymentsAuthenticationRequired = "payments_authentication_required_total"
	DuplicatePaymentsPrevented     = "duplicate_payments_prevented_total"
	PaymentsFailed                 = "payments_failed_total"
	DLQEntriesReceived             = "dlq_events_total"
)

// Collector counts named events. Names are created on first use.
type Collector interface {
	IncrementCounter(name string)
	GetCounter(name string) int64
}

// MockCollector keeps counters in memory for tests
type MockCollector struct {
	mu       sync.RWMutex
	counters map[string]int64
}

func NewMockCollector() *MockCollector {
	return &MockCollector{counters: make(map[string]int64)}
}

func (mc *MockCollector) IncrementCounter(name string) {
	mc.mu.Lock()
	mc.counters[name]++
	mc.mu.Unlock()
}

func (mc *MockCollector) GetCounter(name string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.counters[name]
}
