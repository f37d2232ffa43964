package request

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"wcpay-checkout/internal/domain/payment"
)

const (
	ParamAmount        = "amount"
	ParamCurrency      = "currency"
	ParamCustomer      = "customer"
	ParamPaymentMethod = "payment_method"
	ParamCapture       = "capture_method"
	ParamDescription   = "description"
)

var currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)

// immutableParams may be set once; extensions cannot change them afterwards
var immutableParams = map[string]struct{}{
	ParamAmount:        {},
	ParamCurrency:      {},
	ParamCustomer:      {},
	ParamPaymentMethod: {},
}

// CreateIntent is the outgoing request that creates and confirms an intent
type CreateIntent struct {
	params   map[string]string
	metadata map[string]string
}

func NewCreateIntent() *CreateIntent {
	return &CreateIntent{
		params:   make(map[string]string),
		metadata: make(map[string]string),
	}
}

func (r *CreateIntent) SetAmount(amount int64) error {
	if amount < 0 {
		return &payment.InvalidRequestParameterError{Param: ParamAmount, Message: "amount must not be negative"}
	}
	return r.set(ParamAmount, strconv.FormatInt(amount, 10))
}

func (r *CreateIntent) SetCurrency(currency string) error {
	currency = strings.ToLower(currency)
	if !currencyPattern.MatchString(currency) {
		return &payment.InvalidRequestParameterError{Param: ParamCurrency, Message: fmt.Sprintf("%q is not a three-letter ISO currency code", currency)}
	}
	return r.set(ParamCurrency, currency)
}

func (r *CreateIntent) SetCustomer(customerID string) error {
	if customerID == "" {
		return nil
	}
	if !strings.HasPrefix(customerID, "cus_") {
		return &payment.InvalidRequestParameterError{Param: ParamCustomer, Message: fmt.Sprintf("%q is not a customer ID", customerID)}
	}
	return r.set(ParamCustomer, customerID)
}

func (r *CreateIntent) SetPaymentMethod(paymentMethodID string) error {
	if paymentMethodID == "" {
		return &payment.InvalidRequestParameterError{Param: ParamPaymentMethod, Message: "payment method is required"}
	}
	return r.set(ParamPaymentMethod, paymentMethodID)
}

// SetManualCapture requests an authorization that is captured later
func (r *CreateIntent) SetManualCapture(manual bool) error {
	method := "automatic"
	if manual {
		method = "manual"
	}
	return r.set(ParamCapture, method)
}

func (r *CreateIntent) SetDescription(description string) error {
	return r.set(ParamDescription, description)
}

func (r *CreateIntent) AddMetadata(key, value string) {
	r.metadata[key] = value
}

func (r *CreateIntent) Amount() int64 {
	amount, _ := strconv.ParseInt(r.params[ParamAmount], 10, 64)
	return amount
}

func (r *CreateIntent) Currency() string {
	return r.params[ParamCurrency]
}

func (r *CreateIntent) Customer() string {
	return r.params[ParamCustomer]
}

func (r *CreateIntent) PaymentMethod() string {
	return r.params[ParamPaymentMethod]
}

func (r *CreateIntent) ManualCapture() bool {
	return r.params[ParamCapture] == "manual"
}

func (r *CreateIntent) Description() string {
	return r.params[ParamDescription]
}

// Metadata returns a copy of the request metadata
func (r *CreateIntent) Metadata() map[string]string {
	out := make(map[string]string, len(r.metadata))
	for k, v := range r.metadata {
		out[k] = v
	}
	return out
}

// IsSetup reports whether the request should create a setup intent instead of a payment intent
func (r *CreateIntent) IsSetup() bool {
	return r.Amount() == 0
}

// Validate checks that every parameter the remote API needs is present
func (r *CreateIntent) Validate() error {
	for _, param := range []string{ParamAmount, ParamCurrency, ParamPaymentMethod} {
		if _, ok := r.params[param]; !ok {
			return &payment.InvalidRequestParameterError{Param: param, Message: "parameter is required"}
		}
	}
	return nil
}

func (r *CreateIntent) set(param, value string) error {
	if current, ok := r.params[param]; ok && current != value {
		if _, immutable := immutableParams[param]; immutable {
			return &payment.ImmutableParameterError{Param: param}
		}
	}
	r.params[param] = value
	return nil
}
