package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wcpay-checkout/internal/domain/order"
	"wcpay-checkout/internal/domain/payment"
)

// DuplicatePaymentPreventionService detects attempts that would charge the shopper twice
type DuplicatePaymentPreventionService struct {
	repo   order.Repository
	window time.Duration
	now    func() time.Time
}

func NewDuplicatePaymentPreventionService(repo order.Repository, window time.Duration) *DuplicatePaymentPreventionService {
	return &DuplicatePaymentPreventionService{
		repo:   repo,
		window: window,
		now:    time.Now,
	}
}

// PreviousPaidOrder returns another order for the same customer and cart that was paid within the window
func (s *DuplicatePaymentPreventionService) PreviousPaidOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	if o.CustomerID == "" || o.CartHash == "" {
		return nil, nil
	}

	previous, err := s.repo.FindPaidByCartHash(ctx, o.CustomerID, o.CartHash, s.now().Add(-s.window), o.ID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up previous paid order: %w", err)
	}
	return previous, nil
}

// IsAlreadyPaid reports whether the order was already paid or authorized, for example by a double
// submit. An on-hold order with an uncaptured or processing intent counts.
func (s *DuplicatePaymentPreventionService) IsAlreadyPaid(ctx context.Context, o *order.Order) (bool, error) {
	if o.IsPaid() {
		return true, nil
	}
	return o.IntentID != "" && payment.IntentStatus(o.IntentStatus).IsSuccessful(), nil
}
