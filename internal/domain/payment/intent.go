package payment

// IntentStatus mirrors the remote payment intent status
type IntentStatus string

const (
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentStatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentStatusRequiresAction        IntentStatus = "requires_action"
	IntentStatusProcessing            IntentStatus = "processing"
	IntentStatusRequiresCapture       IntentStatus = "requires_capture"
	IntentStatusCanceled              IntentStatus = "canceled"
	IntentStatusSucceeded             IntentStatus = "succeeded"
)

// IsSuccessful reports whether the intent can be recorded against the order as a successful payment
func (s IntentStatus) IsSuccessful() bool {
	switch s {
	case IntentStatusSucceeded, IntentStatusProcessing, IntentStatusRequiresCapture:
		return true
	default:
		return false
	}
}

// NextActionRedirectToURL is the next action type that sends the shopper to a hosted page
const NextActionRedirectToURL = "redirect_to_url"

type NextAction struct {
	Type        string
	RedirectURL string
}

// Intent is the remote payment (or setup) intent created for an attempt
type Intent struct {
	ID              string
	Status          IntentStatus
	NextAction      *NextAction
	CustomerID      string
	ClientSecret    string
	PaymentMethodID string
	ChargeID        string
	Amount          int64
	Currency        string
	// IsSetup marks a setup intent, used for zero-amount flows such as saving a card
	IsSetup  bool
	Metadata map[string]string
}
