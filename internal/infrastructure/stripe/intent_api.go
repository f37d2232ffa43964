package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"wcpay-checkout/internal/application/payment/request"
	"wcpay-checkout/internal/domain/payment"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

const setupIntentPrefix = "seti_"

// IntentAPI creates and retrieves intents on Stripe
type IntentAPI struct {
	client *client.API
}

func NewIntentAPI(apiKey string) *IntentAPI {
	sc := &client.API{}
	sc.Init(apiKey, nil)

	return &IntentAPI{client: sc}
}

// CreateIntent creates and confirms a payment intent, or a setup intent when the request has no amount
func (a *IntentAPI) CreateIntent(ctx context.Context, req *request.CreateIntent) (*payment.Intent, error) {
	if req.IsSetup() {
		return a.createSetupIntent(ctx, req)
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount()),
		Currency:           stripe.String(req.Currency()),
		PaymentMethod:      stripe.String(req.PaymentMethod()),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	if req.Customer() != "" {
		params.Customer = stripe.String(req.Customer())
	}
	if req.Description() != "" {
		params.Description = stripe.String(req.Description())
	}
	if req.ManualCapture() {
		params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	}
	for k, v := range req.Metadata() {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(uuid.New().String())
	params.Context = ctx

	pi, err := a.client.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return fromPaymentIntent(pi), nil
}

// GetIntent retrieves a payment or setup intent by ID
func (a *IntentAPI) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	if strings.HasPrefix(intentID, setupIntentPrefix) {
		params := &stripe.SetupIntentParams{}
		params.Context = ctx

		si, err := a.client.SetupIntents.Get(intentID, params)
		if err != nil {
			return nil, mapStripeError(err)
		}
		return fromSetupIntent(si), nil
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := a.client.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return fromPaymentIntent(pi), nil
}

func (a *IntentAPI) createSetupIntent(ctx context.Context, req *request.CreateIntent) (*payment.Intent, error) {
	params := &stripe.SetupIntentParams{
		PaymentMethod:      stripe.String(req.PaymentMethod()),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Usage:              stripe.String(string(stripe.SetupIntentUsageOffSession)),
		Confirm:            stripe.Bool(true),
	}
	if req.Customer() != "" {
		params.Customer = stripe.String(req.Customer())
	}
	for k, v := range req.Metadata() {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(uuid.New().String())
	params.Context = ctx

	si, err := a.client.SetupIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	intent := fromSetupIntent(si)
	intent.Currency = req.Currency()
	return intent, nil
}

func fromPaymentIntent(pi *stripe.PaymentIntent) *payment.Intent {
	intent := &payment.Intent{
		ID:           pi.ID,
		Status:       payment.IntentStatus(pi.Status),
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if pi.Customer != nil {
		intent.CustomerID = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		intent.PaymentMethodID = pi.PaymentMethod.ID
	}
	if pi.LatestCharge != nil {
		intent.ChargeID = pi.LatestCharge.ID
	}
	if na := pi.NextAction; na != nil {
		intent.NextAction = &payment.NextAction{Type: string(na.Type)}
		if na.RedirectToURL != nil {
			intent.NextAction.RedirectURL = na.RedirectToURL.URL
		}
	}
	return intent
}

func fromSetupIntent(si *stripe.SetupIntent) *payment.Intent {
	intent := &payment.Intent{
		ID:           si.ID,
		Status:       payment.IntentStatus(si.Status),
		ClientSecret: si.ClientSecret,
		IsSetup:      true,
		Metadata:     si.Metadata,
	}
	if si.Customer != nil {
		intent.CustomerID = si.Customer.ID
	}
	if si.PaymentMethod != nil {
		intent.PaymentMethodID = si.PaymentMethod.ID
	}
	if na := si.NextAction; na != nil {
		intent.NextAction = &payment.NextAction{Type: string(na.Type)}
		if na.RedirectToURL != nil {
			intent.NextAction.RedirectURL = na.RedirectToURL.URL
		}
	}
	return intent
}

// mapStripeError converts Stripe errors into the payment error types the states classify
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe request failed: %w", err)
	}

	switch {
	case stripeErr.Type == stripe.ErrorTypeCard:
		return &payment.CardError{
			Code:        string(stripeErr.Code),
			DeclineCode: string(stripeErr.DeclineCode),
			Message:     stripeErr.Msg,
		}
	case stripeErr.HTTPStatusCode >= http.StatusInternalServerError || stripeErr.Type == stripe.ErrorTypeAPI:
		return &payment.APIServerError{StatusCode: stripeErr.HTTPStatusCode, Message: stripeErr.Msg}
	case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
		// rejected remotely, e.g. an unknown payment method id sent by the shopper
		return &payment.RequestError{Message: stripeErr.Msg}
	}
	return fmt.Errorf("stripe request failed: %w", err)
}
