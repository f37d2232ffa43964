package state

import (
	"context"
	"fmt"

	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/domain/payment"
)

// errorState is the shared exit of every error state. Whether to log and whether to fail the
// order is decided per state.
type errorState struct {
	base
	orders     OrderService
	logger     logger.Logger
	logError   bool
	markFailed bool
}

func newErrorState(b base, d Dependencies, logError, markFailed bool) errorState {
	return errorState{
		base:       b,
		orders:     d.Orders,
		logger:     d.Logger,
		logError:   logError,
		markFailed: markFailed,
	}
}

func (s *errorState) ShouldLogError() bool {
	return s.logError
}

func (s *errorState) ShouldMarkOrderAsFailed() bool {
	return s.markFailed
}

// HandleErrorState logs and fails the order as configured, then returns the error that led
// here. It never returns nil.
func (s *errorState) HandleErrorState(ctx context.Context) error {
	cause := s.pctx.Error()
	orderID := s.pctx.OrderID()

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	if s.ShouldLogError() {
		s.logger.Error(fmt.Sprintf("Failed to process order with ID: %d. Reason: %s", orderID, reason),
			logger.Field{Key: "order_id", Value: orderID},
			logger.Field{Key: "state", Value: string(s.name)})
	}

	if s.ShouldMarkOrderAsFailed() {
		if err := s.orders.MarkOrderAsFailed(ctx, orderID, reason); err != nil {
			s.logger.Warn("Could not mark order as failed",
				logger.Field{Key: "order_id", Value: orderID},
				logger.Field{Key: "error", Value: err})
		}
	}

	if cause != nil {
		return cause
	}
	return payment.ErrProcessNotCompleted
}

// PaymentErrorState is entered when the processor refuses the payment, such as a declined card
type PaymentErrorState struct {
	errorState
}

// PaymentRequestErrorState is entered when the checkout input is invalid
type PaymentRequestErrorState struct {
	errorState
}

// SystemErrorState is entered when we built a malformed request for the payments API
type SystemErrorState struct {
	errorState
}

// WooPaymentsAPIServerErrorState is entered when the payments API fails on its side
type WooPaymentsAPIServerErrorState struct {
	errorState
}
