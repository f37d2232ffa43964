package state

import (
	"context"
	"net/url"
	"strconv"

	"wcpay-checkout/internal/domain/payment"
)

const (
	FlagPaymentSuccessOrderID = "wcpay_payment_success_order_id"
	FlagPaidForPreviousOrder  = "wcpay_paid_for_previous_order"
)

// DuplicateOrderDetectedState is entered when the order was already paid, for example on a double submit
type DuplicateOrderDetectedState struct {
	base
	orders OrderService
}

// Response sends the shopper to the order received page without charging again
func (s *DuplicateOrderDetectedState) Response(ctx context.Context) (*payment.Response, error) {
	o, err := s.orders.GetOrder(ctx, s.pctx.OrderID())
	if err != nil {
		return nil, err
	}

	return &payment.Response{
		Result:   payment.ResultSuccess,
		Redirect: addQueryArg(s.orders.OrderReceivedURL(o), FlagPaymentSuccessOrderID, strconv.FormatInt(o.ID, 10)),
	}, nil
}

// PreviousPaidOrderDetectedState is entered when another order for the same customer and cart was paid recently
type PreviousPaidOrderDetectedState struct {
	base
	orders OrderService
}

// Response sends the shopper to the previously paid order
func (s *PreviousPaidOrderDetectedState) Response(ctx context.Context) (*payment.Response, error) {
	previous, err := s.orders.GetOrder(ctx, s.pctx.DuplicateOrderID())
	if err != nil {
		return nil, err
	}

	return &payment.Response{
		Result:   payment.ResultSuccess,
		Redirect: addQueryArg(s.orders.OrderReceivedURL(previous), FlagPaidForPreviousOrder, "yes"),
	}, nil
}

func addQueryArg(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
