package state

import (
	"context"
	"errors"
	"fmt"

	"wcpay-checkout/internal/domain/order"
	"wcpay-checkout/internal/domain/payment"
)

const invalidPaymentDetailsMessage = "Invalid or missing payment details. Please ensure the provided payment method is correctly entered."

// InitialState is where every payment attempt starts
type InitialState struct {
	base
	orders     OrderService
	duplicates DuplicatePaymentPreventionService
}

// Process loads the order into the context and completes without charging.
// Used for orders that need no remote payment.
func (s *InitialState) Process(ctx context.Context) (State, error) {
	if _, err := s.populateContext(ctx); err != nil {
		return nil, err
	}
	return s.createState(ctx, Completed)
}

// StartProcessing runs the checkout path: request validation, order lookup, duplicate
// detection, then intent creation through VerifiedState.
func (s *InitialState) StartProcessing(ctx context.Context, req Request) (State, error) {
	if s.pctx.OrderID() <= 0 {
		return s.createErrorState(ctx, PaymentRequestError, &payment.RequestError{Message: "Invalid order ID."})
	}
	if req.PaymentMethodID == "" {
		return s.createErrorState(ctx, PaymentRequestError, &payment.RequestError{Message: invalidPaymentDetailsMessage})
	}
	s.pctx.SetPaymentMethod(&payment.PaymentMethod{ID: req.PaymentMethodID, Saved: req.SavedPaymentMethod})

	o, err := s.populateContext(ctx)
	if err != nil {
		var notFound *payment.OrderNotFoundError
		if errors.As(err, &notFound) {
			return s.createErrorState(ctx, PaymentRequestError, err)
		}
		return nil, err
	}

	previous, err := s.duplicates.PreviousPaidOrder(ctx, o)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		s.pctx.SetDuplicateOrderID(previous.ID)
		note := fmt.Sprintf("Payment skipped: order %d for the same cart was already paid.", previous.ID)
		if err := s.orders.AddNote(ctx, o.ID, note); err != nil {
			return nil, err
		}
		return s.createState(ctx, PreviousPaidOrderDetected)
	}

	paid, err := s.duplicates.IsAlreadyPaid(ctx, o)
	if err != nil {
		return nil, err
	}
	if paid {
		return s.createState(ctx, DuplicateOrderDetected)
	}

	verified, err := s.createState(ctx, Verified)
	if err != nil {
		return nil, err
	}

	next, err := Process(ctx, verified)
	if err != nil {
		var cardErr *payment.CardError
		var serverErr *payment.APIServerError
		var reqErr *payment.RequestError
		switch {
		case errors.As(err, &cardErr):
			return s.createErrorState(ctx, PaymentError, cardErr)
		case errors.As(err, &serverErr):
			return s.createErrorState(ctx, WooPaymentsAPIServerError, serverErr)
		case errors.As(err, &reqErr):
			return s.createErrorState(ctx, PaymentRequestError, reqErr)
		}
		return nil, err
	}
	return next, nil
}

func (s *InitialState) populateContext(ctx context.Context) (*order.Order, error) {
	o, err := s.orders.GetOrder(ctx, s.pctx.OrderID())
	if err != nil {
		return nil, err
	}

	s.pctx.SetAmount(o.Total)
	s.pctx.SetCurrency(o.Currency)
	s.pctx.SetCustomerID(o.CustomerID)
	s.pctx.SetCartHash(o.CartHash)
	return o, nil
}
