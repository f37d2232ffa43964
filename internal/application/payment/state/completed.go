package state

import (
	"context"

	"wcpay-checkout/internal/domain/payment"
)

// CompletedState is the successful end of an attempt
type CompletedState struct {
	base
	orders OrderService
}

// ProcessingResponse sends the shopper to the order received page
func (s *CompletedState) ProcessingResponse(ctx context.Context) (*payment.Response, error) {
	o, err := s.orders.GetOrder(ctx, s.pctx.OrderID())
	if err != nil {
		return nil, err
	}

	return &payment.Response{
		Result:   payment.ResultSuccess,
		Redirect: s.orders.OrderReceivedURL(o),
	}, nil
}
