package services

import (
	"context"
	"fmt"
	"strconv"

	"wcpay-checkout/internal/application/payment/request"
	"wcpay-checkout/internal/domain/payment"
)

// IntentAPI is the remote payments API that creates and retrieves intents
type IntentAPI interface {
	CreateIntent(ctx context.Context, req *request.CreateIntent) (*payment.Intent, error)
	GetIntent(ctx context.Context, intentID string) (*payment.Intent, error)
}

// PaymentRequestService builds the outgoing intent request for an attempt and sends it
type PaymentRequestService struct {
	api           IntentAPI
	extensions    []request.Extension
	manualCapture bool
}

func NewPaymentRequestService(api IntentAPI, manualCapture bool, extensions ...request.Extension) *PaymentRequestService {
	return &PaymentRequestService{
		api:           api,
		extensions:    extensions,
		manualCapture: manualCapture,
	}
}

// CreateIntent creates and confirms an intent for the attempt. Request-building failures are
// returned as the payment request error types; remote failures are returned as the API reports them.
func (s *PaymentRequestService) CreateIntent(ctx context.Context, pctx *payment.Context) (*payment.Intent, error) {
	req, err := s.buildRequest(pctx)
	if err != nil {
		return nil, err
	}

	if err := request.ApplyExtensions(req, pctx, s.extensions); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	intent, err := s.api.CreateIntent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create intent for order %d: %w", pctx.OrderID(), err)
	}
	return intent, nil
}

// GetIntent retrieves an intent by ID
func (s *PaymentRequestService) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	return s.api.GetIntent(ctx, intentID)
}

func (s *PaymentRequestService) buildRequest(pctx *payment.Context) (*request.CreateIntent, error) {
	req := request.NewCreateIntent()

	if err := req.SetAmount(pctx.Amount()); err != nil {
		return nil, err
	}
	if err := req.SetCurrency(pctx.Currency()); err != nil {
		return nil, err
	}
	if err := req.SetCustomer(pctx.CustomerID()); err != nil {
		return nil, err
	}

	paymentMethodID := ""
	if pm := pctx.PaymentMethod(); pm != nil {
		paymentMethodID = pm.ID
	}
	if err := req.SetPaymentMethod(paymentMethodID); err != nil {
		return nil, err
	}

	if err := req.SetManualCapture(s.manualCapture); err != nil {
		return nil, err
	}

	orderID := strconv.FormatInt(pctx.OrderID(), 10)
	if err := req.SetDescription("Order " + orderID); err != nil {
		return nil, err
	}
	req.AddMetadata("order_id", orderID)

	return req, nil
}
