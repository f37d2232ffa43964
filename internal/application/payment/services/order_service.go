package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/domain/order"
	"wcpay-checkout/internal/domain/payment"
)

// OrderService reads and updates store orders on behalf of the payment states
type OrderService struct {
	repo    order.Repository
	siteURL string
	logger  logger.Logger
	now     func() time.Time
}

func NewOrderService(repo order.Repository, siteURL string, l logger.Logger) *OrderService {
	return &OrderService{
		repo:    repo,
		siteURL: siteURL,
		logger:  l,
		now:     time.Now,
	}
}

// GetOrder returns the order or an *payment.OrderNotFoundError
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, &payment.OrderNotFoundError{OrderID: orderID}
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return o, nil
}

// MarkOrderAsFailed moves the order to failed and records the reason as an order note
func (s *OrderService) MarkOrderAsFailed(ctx context.Context, orderID int64, reason string) error {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if err := o.TransitionTo(order.StatusFailed); err != nil {
		return fmt.Errorf("failed to mark order %d as failed from %s: %w", orderID, o.Status, err)
	}

	note := "Payment failed."
	if reason != "" {
		note = fmt.Sprintf("Payment failed: %s", reason)
	}
	o.AddNote(note)

	if err := s.repo.Save(ctx, o); err != nil {
		return fmt.Errorf("failed to save order %d: %w", orderID, err)
	}

	s.logger.Info("Order marked as failed", logger.Field{Key: "order_id", Value: orderID})
	return nil
}

// UpdateOrderFromSuccessfulIntent records the intent on the order and moves the order to the
// status matching the intent status.
func (s *OrderService) UpdateOrderFromSuccessfulIntent(ctx context.Context, orderID int64, intent *payment.Intent, pctx *payment.Context) error {
	if intent == nil {
		return fmt.Errorf("no intent to record on order %d", orderID)
	}

	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	o.IntentID = intent.ID
	o.IntentStatus = string(intent.Status)
	if intent.PaymentMethodID != "" {
		o.PaymentMethod = intent.PaymentMethodID
	}
	if o.CustomerID == "" && intent.CustomerID != "" {
		o.CustomerID = intent.CustomerID
	}

	var (
		target order.Status
		note   string
	)
	amount := formatAmount(pctx.Amount(), pctx.Currency())

	switch intent.Status {
	case payment.IntentStatusSucceeded:
		target = order.StatusProcessing
		o.TransactionID = intent.ChargeID
		paidAt := s.now()
		o.PaidAt = &paidAt
		note = fmt.Sprintf("A payment of %s was successfully charged using %s.", amount, intent.ID)
		if intent.IsSetup {
			note = fmt.Sprintf("Payment method %s was saved using %s.", intent.PaymentMethodID, intent.ID)
		}
	case payment.IntentStatusRequiresCapture:
		target = order.StatusOnHold
		note = fmt.Sprintf("A payment of %s was authorized using %s.", amount, intent.ID)
	case payment.IntentStatusProcessing:
		target = order.StatusOnHold
		note = fmt.Sprintf("A payment of %s started using %s.", amount, intent.ID)
	default:
		return fmt.Errorf("intent %s with status %s is not successful", intent.ID, intent.Status)
	}

	if o.Status != target {
		if err := o.TransitionTo(target); err != nil {
			return fmt.Errorf("failed to move order %d from %s to %s: %w", orderID, o.Status, target, err)
		}
	}
	o.AddNote(note)

	if err := s.repo.Save(ctx, o); err != nil {
		return fmt.Errorf("failed to save order %d: %w", orderID, err)
	}

	s.logger.Info("Order updated from intent",
		logger.Field{Key: "order_id", Value: orderID},
		logger.Field{Key: "intent_id", Value: intent.ID},
		logger.Field{Key: "status", Value: string(o.Status)})
	return nil
}

// UpdateOrderFromIntentRequiringAction attaches an intent awaiting shopper authentication to the order.
// The order stays pending until the follow-up status update.
func (s *OrderService) UpdateOrderFromIntentRequiringAction(ctx context.Context, orderID int64, intent *payment.Intent, pctx *payment.Context) error {
	if intent == nil {
		return fmt.Errorf("no intent to record on order %d", orderID)
	}

	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if o.Status != order.StatusPending {
		if err := o.TransitionTo(order.StatusPending); err != nil {
			return fmt.Errorf("failed to move order %d from %s to pending: %w", orderID, o.Status, err)
		}
	}

	o.IntentID = intent.ID
	o.IntentStatus = string(intent.Status)
	if intent.PaymentMethodID != "" {
		o.PaymentMethod = intent.PaymentMethodID
	}
	o.AddNote(fmt.Sprintf("A payment of %s started using %s and requires authentication.", formatAmount(pctx.Amount(), pctx.Currency()), intent.ID))

	if err := s.repo.Save(ctx, o); err != nil {
		return fmt.Errorf("failed to save order %d: %w", orderID, err)
	}
	return nil
}

// AddNote appends a note to the order
func (s *OrderService) AddNote(ctx context.Context, orderID int64, note string) error {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	o.AddNote(note)
	if err := s.repo.Save(ctx, o); err != nil {
		return fmt.Errorf("failed to save order %d: %w", orderID, err)
	}
	return nil
}

// OrderReceivedURL is the checkout "thank you" page of the order
func (s *OrderService) OrderReceivedURL(o *order.Order) string {
	return fmt.Sprintf("%s/checkout/order-received/%d/?key=%s", s.siteURL, o.ID, o.OrderKey)
}

func formatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, currency)
}
