package state

import (
	"context"
	"fmt"
	"strconv"

	"wcpay-checkout/internal/common/configs"
	"wcpay-checkout/internal/domain/payment"
)

// AuthenticationRequiredState ends the request with instructions for client-side authentication.
// The order is finalized by the follow-up status update.
type AuthenticationRequiredState struct {
	base
	encryption CheckoutEncryptionService
	nonces     NonceService
}

// Response redirects to the hosted authentication page when the intent asks for it. Otherwise it
// returns the confirmation fragment the checkout script reads:
// #wcpay-confirm-<pi|si>:<order id>:<encrypted client secret>:<nonce>
func (s *AuthenticationRequiredState) Response(ctx context.Context) (*payment.Response, error) {
	intent := s.pctx.Intent()
	if intent == nil {
		return nil, fmt.Errorf("order %d requires authentication but has no intent", s.pctx.OrderID())
	}

	if next := intent.NextAction; next != nil && next.Type == payment.NextActionRedirectToURL && next.RedirectURL != "" {
		return &payment.Response{
			Result:   payment.ResultSuccess,
			Redirect: next.RedirectURL,
		}, nil
	}

	customerID := intent.CustomerID
	if customerID == "" {
		customerID = s.pctx.CustomerID()
	}

	encrypted, err := s.encryption.EncryptClientSecret(customerID, intent.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt client secret: %w", err)
	}

	intentType := "si"
	if s.pctx.Amount() > 0 {
		intentType = "pi"
	}

	orderID := strconv.FormatInt(s.pctx.OrderID(), 10)
	nonce := s.nonces.Create(configs.UpdateOrderStatusNonceAction, orderID)

	return &payment.Response{
		Result:        payment.ResultSuccess,
		Redirect:      fmt.Sprintf("#wcpay-confirm-%s:%s:%s:%s", intentType, orderID, encrypted, nonce),
		PaymentMethod: intent.PaymentMethodID,
	}, nil
}
