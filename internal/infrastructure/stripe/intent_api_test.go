package stripe

import (
	"errors"
	"testing"

	"wcpay-checkout/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func TestMapStripeError(t *testing.T) {
	t.Run("card error", func(t *testing.T) {
		err := mapStripeError(&stripe.Error{
			Type:           stripe.ErrorTypeCard,
			Code:           stripe.ErrorCodeCardDeclined,
			DeclineCode:    stripe.DeclineCodeInsufficientFunds,
			Msg:            "Your card has insufficient funds.",
			HTTPStatusCode: 402,
		})

		var cardErr *payment.CardError
		require.True(t, errors.As(err, &cardErr))
		assert.Equal(t, "card_declined", cardErr.Code)
		assert.Equal(t, "insufficient_funds", cardErr.DeclineCode)
		assert.Equal(t, "Your card has insufficient funds.", cardErr.Error())
	})

	t.Run("server error", func(t *testing.T) {
		err := mapStripeError(&stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "oops", HTTPStatusCode: 503})

		var serverErr *payment.APIServerError
		require.True(t, errors.As(err, &serverErr))
		assert.Equal(t, 503, serverErr.StatusCode)
	})

	t.Run("remote invalid request is a shopper error", func(t *testing.T) {
		err := mapStripeError(&stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Param: "payment_method", Msg: "No such PaymentMethod: 'pm_bogus'", HTTPStatusCode: 400})

		var reqErr *payment.RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, "No such PaymentMethod: 'pm_bogus'", reqErr.Error())
		assert.False(t, payment.IsMalformedRequest(err))
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		cause := errors.New("dial tcp: timeout")
		err := mapStripeError(cause)

		assert.ErrorIs(t, err, cause)
		assert.False(t, payment.IsMalformedRequest(err))
	})
}

func TestFromPaymentIntent(t *testing.T) {
	pi := &stripe.PaymentIntent{
		ID:            "pi_1",
		Status:        stripe.PaymentIntentStatusRequiresAction,
		ClientSecret:  "pi_1_secret",
		Amount:        1000,
		Currency:      stripe.CurrencyUSD,
		Customer:      &stripe.Customer{ID: "cus_123"},
		PaymentMethod: &stripe.PaymentMethod{ID: "pm_card_threeDSecure"},
		NextAction: &stripe.PaymentIntentNextAction{
			Type:          stripe.PaymentIntentNextActionTypeRedirectToURL,
			RedirectToURL: &stripe.PaymentIntentNextActionRedirectToURL{URL: "https://hooks.stripe.test/3ds"},
		},
	}

	intent := fromPaymentIntent(pi)

	assert.Equal(t, payment.IntentStatusRequiresAction, intent.Status)
	assert.Equal(t, "cus_123", intent.CustomerID)
	assert.Equal(t, "pm_card_threeDSecure", intent.PaymentMethodID)
	assert.Equal(t, "usd", intent.Currency)
	require.NotNil(t, intent.NextAction)
	assert.Equal(t, payment.NextActionRedirectToURL, intent.NextAction.Type)
	assert.Equal(t, "https://hooks.stripe.test/3ds", intent.NextAction.RedirectURL)
	assert.False(t, intent.IsSetup)
}

func TestFromSetupIntent(t *testing.T) {
	intent := fromSetupIntent(&stripe.SetupIntent{
		ID:            "seti_1",
		Status:        stripe.SetupIntentStatusSucceeded,
		PaymentMethod: &stripe.PaymentMethod{ID: "pm_1"},
	})

	assert.True(t, intent.IsSetup)
	assert.Equal(t, payment.IntentStatusSucceeded, intent.Status)
	assert.Equal(t, "pm_1", intent.PaymentMethodID)
}
