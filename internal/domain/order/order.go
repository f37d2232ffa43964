package order

import (
	"errors"
	"time"
)

var (
	// ErrInvalidStatusTransition indicates an order status change that is not allowed
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// Status represents the store-side status of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusOnHold     Status = "on-hold"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsPaid reports whether the status means the payment has been taken
func (s Status) IsPaid() bool {
	return s == StatusProcessing || s == StatusCompleted
}

// CanTransitionTo checks if a status change is valid
func (s Status) CanTransitionTo(target Status) bool {
	validTransitions := map[Status][]Status{
		StatusPending:    {StatusPending, StatusOnHold, StatusProcessing, StatusFailed, StatusCancelled},
		StatusFailed:     {StatusPending, StatusOnHold, StatusProcessing, StatusFailed, StatusCancelled},
		StatusOnHold:     {StatusOnHold, StatusProcessing, StatusFailed, StatusCancelled},
		StatusProcessing: {StatusProcessing, StatusCompleted},
		StatusCompleted:  {},
		StatusCancelled:  {},
	}

	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Order is the store order being paid for
type Order struct {
	ID            int64
	OrderKey      string
	Status        Status
	Total         int64
	Currency      string
	CustomerID    string
	CartHash      string
	IntentID      string
	IntentStatus  string
	TransactionID string
	PaymentMethod string
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Notes         []string
}

// TransitionTo changes the order status
func (o *Order) TransitionTo(status Status) error {
	if !o.Status.CanTransitionTo(status) {
		return ErrInvalidStatusTransition
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

// AddNote appends an order note
func (o *Order) AddNote(note string) {
	o.Notes = append(o.Notes, note)
}

// IsPaid returns true when the order is paid either by status or by a succeeded intent
func (o *Order) IsPaid() bool {
	return o.Status.IsPaid() || (o.IntentID != "" && o.IntentStatus == "succeeded")
}
