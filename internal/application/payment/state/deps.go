package state

import (
	"context"

	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/common/metrics"
	"wcpay-checkout/internal/domain/order"
	"wcpay-checkout/internal/domain/payment"
)

type OrderService interface {
	GetOrder(ctx context.Context, orderID int64) (*order.Order, error)
	MarkOrderAsFailed(ctx context.Context, orderID int64, reason string) error
	UpdateOrderFromSuccessfulIntent(ctx context.Context, orderID int64, intent *payment.Intent, pctx *payment.Context) error
	UpdateOrderFromIntentRequiringAction(ctx context.Context, orderID int64, intent *payment.Intent, pctx *payment.Context) error
	AddNote(ctx context.Context, orderID int64, note string) error
	OrderReceivedURL(o *order.Order) string
}

type PaymentRequestService interface {
	CreateIntent(ctx context.Context, pctx *payment.Context) (*payment.Intent, error)
}

type CheckoutEncryptionService interface {
	EncryptClientSecret(customerID, clientSecret string) (string, error)
}

type NonceService interface {
	Create(action, subject string) string
}

type DuplicatePaymentPreventionService interface {
	PreviousPaidOrder(ctx context.Context, o *order.Order) (*order.Order, error)
	IsAlreadyPaid(ctx context.Context, o *order.Order) (bool, error)
}

// Dependencies are the services handed to states by the factory. Metrics is optional.
type Dependencies struct {
	Orders          OrderService
	PaymentRequests PaymentRequestService
	Encryption      CheckoutEncryptionService
	Nonces          NonceService
	Duplicates      DuplicatePaymentPreventionService
	Logger          logger.Logger
	Metrics         metrics.Collector
}
