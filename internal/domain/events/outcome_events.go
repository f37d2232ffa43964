package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	TypePaymentCompleted              = "PaymentCompleted"
	TypePaymentAuthenticationRequired = "PaymentAuthenticationRequired"
	TypeDuplicatePaymentPrevented     = "DuplicatePaymentPrevented"
	TypePaymentFailed                 = "PaymentFailed"

	AggregateTypeOrder = "Order"
	outcomeVersion     = 1
)

// PaymentOutcomeData describes how a checkout attempt ended
type PaymentOutcomeData struct {
	OrderID     int64    `json:"order_id"`
	IntentID    string   `json:"intent_id,omitempty"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	FinalState  string   `json:"final_state"`
	Transitions []string `json:"transitions"`
	Reason      string   `json:"reason,omitempty"`
	// DuplicateOfOrderID is set when a previously paid order was found for the same cart
	DuplicateOfOrderID int64 `json:"duplicate_of_order_id,omitempty"`
}

// IsOutcomeType reports whether eventType is one of the payment outcome events
func IsOutcomeType(eventType string) bool {
	switch eventType {
	case TypePaymentCompleted, TypePaymentAuthenticationRequired, TypeDuplicatePaymentPrevented, TypePaymentFailed:
		return true
	default:
		return false
	}
}

// NewPaymentOutcome creates an outcome event keyed by the order ID
func NewPaymentOutcome(eventType string, data PaymentOutcomeData, metadata EventMetadata) *BaseEvent {
	return NewBaseEvent(
		uuid.New().String(),
		eventType,
		strconv.FormatInt(data.OrderID, 10),
		AggregateTypeOrder,
		outcomeVersion,
		data,
		metadata,
		time.Now(),
	)
}
