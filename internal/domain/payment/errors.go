package payment

import (
	"errors"
	"fmt"
)

// ErrProcessNotCompleted is returned by error states that were entered without a cause
var ErrProcessNotCompleted = errors.New("the payment process could not be completed")

// OrderNotFoundError is returned when an order ID does not resolve to an order
type OrderNotFoundError struct {
	OrderID int64
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order with ID %d was not found", e.OrderID)
}

// InvalidRequestParameterError is raised while building an outgoing request with an invalid value
type InvalidRequestParameterError struct {
	Param   string
	Message string
}

func (e *InvalidRequestParameterError) Error() string {
	return fmt.Sprintf("invalid request parameter %q: %s", e.Param, e.Message)
}

// ExtendRequestError is raised when a request extension fails or leaves the request unusable
type ExtendRequestError struct {
	Extension string
	Err       error
}

func (e *ExtendRequestError) Error() string {
	return fmt.Sprintf("request extension %q failed: %v", e.Extension, e.Err)
}

func (e *ExtendRequestError) Unwrap() error {
	return e.Err
}

// ImmutableParameterError is raised when a request parameter is changed after it was set
type ImmutableParameterError struct {
	Param string
}

func (e *ImmutableParameterError) Error() string {
	return fmt.Sprintf("request parameter %q is immutable and cannot be changed", e.Param)
}

// IsMalformedRequest reports whether err comes from building the outgoing request on our side
func IsMalformedRequest(err error) bool {
	var invalidParam *InvalidRequestParameterError
	var extend *ExtendRequestError
	var immutable *ImmutableParameterError
	return errors.As(err, &invalidParam) || errors.As(err, &extend) || errors.As(err, &immutable)
}

// CardError is a buyer-side failure reported by the processor, such as a declined card
type CardError struct {
	Code        string
	DeclineCode string
	Message     string
}

func (e *CardError) Error() string {
	return e.Message
}

// APIServerError is a server-side failure of the remote payments API
type APIServerError struct {
	StatusCode int
	Message    string
}

func (e *APIServerError) Error() string {
	return fmt.Sprintf("payments API server error (%d): %s", e.StatusCode, e.Message)
}

// RequestError describes invalid checkout input supplied by the shopper
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}
