package payment

const ResultSuccess = "success"

// Response is what a payment attempt hands back to the checkout client
type Response struct {
	Result        string `json:"result"`
	Redirect      string `json:"redirect"`
	PaymentMethod string `json:"payment_method,omitempty"`
}
