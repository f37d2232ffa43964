package state

import (
	"context"

	"wcpay-checkout/internal/domain/payment"
)

// VerifiedState holds a context that is ready to be charged
type VerifiedState struct {
	base
	orders   OrderService
	requests PaymentRequestService
}

// Process creates the intent. A malformed outgoing request is our bug and ends in SystemErrorState.
// An intent that needs shopper authentication ends in AuthenticationRequiredState; anything else is
// recorded through ProcessedState and completes right away.
func (s *VerifiedState) Process(ctx context.Context) (State, error) {
	intent, err := s.requests.CreateIntent(ctx, s.pctx)
	if err != nil {
		if payment.IsMalformedRequest(err) {
			return s.createErrorState(ctx, SystemError, err)
		}
		return nil, err
	}

	s.pctx.SetIntent(intent)

	if intent.Status == payment.IntentStatusRequiresAction {
		if err := s.orders.UpdateOrderFromIntentRequiringAction(ctx, s.pctx.OrderID(), intent, s.pctx); err != nil {
			return nil, err
		}
		return s.createState(ctx, AuthenticationRequired)
	}

	processed, err := s.createState(ctx, Processed)
	if err != nil {
		return nil, err
	}
	return Complete(ctx, processed)
}
