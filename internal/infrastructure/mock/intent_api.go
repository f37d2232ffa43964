package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"wcpay-checkout/internal/application/payment/request"
	"wcpay-checkout/internal/domain/payment"

	"github.com/google/uuid"
)

// Test payment methods understood by the mock payments API
const (
	PaymentMethodSucceeds     = "pm_card_visa"
	PaymentMethodThreeDSecure = "pm_card_threeDSecure"
	PaymentMethodRedirect     = "pm_card_redirect"
	PaymentMethodDeclined     = "pm_card_chargeDeclined"
	PaymentMethodServerError  = "pm_card_serverError"
	PaymentMethodUnknown      = "pm_unknown"
)

// IntentAPI is an in-process payments API for local runs and tests. The outcome of an intent is
// decided by the payment method it is confirmed with.
type IntentAPI struct {
	mu         sync.Mutex
	intents    map[string]*payment.Intent
	avgLatency time.Duration
}

func NewIntentAPI(avgLatency time.Duration) *IntentAPI {
	return &IntentAPI{
		intents:    make(map[string]*payment.Intent),
		avgLatency: avgLatency,
	}
}

func (a *IntentAPI) CreateIntent(ctx context.Context, req *request.CreateIntent) (*payment.Intent, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	pm := req.PaymentMethod()
	switch {
	case strings.Contains(pm, "Declined"):
		return nil, &payment.CardError{Code: "card_declined", DeclineCode: "generic_decline", Message: "Your card was declined."}
	case strings.Contains(pm, "serverError"):
		return nil, &payment.APIServerError{StatusCode: 500, Message: "An error occurred while processing the payment."}
	case pm == PaymentMethodUnknown:
		return nil, &payment.RequestError{Message: fmt.Sprintf("No such PaymentMethod: '%s'", pm)}
	}

	prefix := "pi_"
	if req.IsSetup() {
		prefix = "seti_"
	}
	id := prefix + strings.ReplaceAll(uuid.New().String(), "-", "")

	intent := &payment.Intent{
		ID:              id,
		Status:          payment.IntentStatusSucceeded,
		CustomerID:      req.Customer(),
		ClientSecret:    fmt.Sprintf("%s_secret_%s", id, uuid.New().String()[:8]),
		PaymentMethodID: pm,
		Amount:          req.Amount(),
		Currency:        req.Currency(),
		IsSetup:         req.IsSetup(),
		Metadata:        req.Metadata(),
	}

	switch {
	case strings.Contains(pm, "threeDSecure"):
		intent.Status = payment.IntentStatusRequiresAction
		intent.NextAction = &payment.NextAction{Type: "use_stripe_sdk"}
	case strings.Contains(pm, "redirect"):
		intent.Status = payment.IntentStatusRequiresAction
		intent.NextAction = &payment.NextAction{
			Type:        payment.NextActionRedirectToURL,
			RedirectURL: "https://payments.test/authenticate/" + id,
		}
	case req.ManualCapture() && !req.IsSetup():
		intent.Status = payment.IntentStatusRequiresCapture
	}
	if intent.Status == payment.IntentStatusSucceeded && !intent.IsSetup {
		intent.ChargeID = "ch_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:24]
	}

	a.mu.Lock()
	a.intents[id] = cloneIntent(intent)
	a.mu.Unlock()

	return intent, nil
}

func (a *IntentAPI) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	intent, ok := a.intents[intentID]
	if !ok {
		return nil, &payment.RequestError{Message: fmt.Sprintf("no such intent: %s", intentID)}
	}
	return cloneIntent(intent), nil
}

// CompleteAuthentication plays the shopper finishing authentication for an intent.
// A false success leaves the intent needing a new payment method.
func (a *IntentAPI) CompleteAuthentication(intentID string, success bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	intent, ok := a.intents[intentID]
	if !ok {
		return fmt.Errorf("no such intent: %s", intentID)
	}
	if intent.Status != payment.IntentStatusRequiresAction {
		return fmt.Errorf("intent %s does not require action", intentID)
	}

	intent.NextAction = nil
	if !success {
		intent.Status = payment.IntentStatusRequiresPaymentMethod
		return nil
	}

	intent.Status = payment.IntentStatusSucceeded
	if !intent.IsSetup {
		intent.ChargeID = "ch_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:24]
	}
	return nil
}

func (a *IntentAPI) wait(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if a.avgLatency <= 0 {
		return nil
	}

	select {
	case <-time.After(a.avgLatency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func cloneIntent(i *payment.Intent) *payment.Intent {
	c := *i
	if i.NextAction != nil {
		na := *i.NextAction
		c.NextAction = &na
	}
	if i.Metadata != nil {
		c.Metadata = make(map[string]string, len(i.Metadata))
		for k, v := range i.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
