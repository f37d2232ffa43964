package state

import (
	"context"
	"errors"
	"fmt"

	"wcpay-checkout/internal/domain/payment"
)

var (
	// ErrStateTransition marks protocol errors: a lifecycle method the current state does not
	// offer, or a state name the factory does not know.
	ErrStateTransition = errors.New("state transition error")
	// ErrMissingDependency marks a factory that was not given a service a state needs
	ErrMissingDependency = errors.New("missing state dependency")
)

// StateName identifies a payment state
type StateName string

const (
	Initial                   StateName = "InitialState"
	Verified                  StateName = "VerifiedState"
	Processed                 StateName = "ProcessedState"
	AuthenticationRequired    StateName = "AuthenticationRequiredState"
	PendingAuthentication     StateName = "PendingAuthenticationState"
	Completed                 StateName = "CompletedState"
	DuplicateOrderDetected    StateName = "DuplicateOrderDetectedState"
	PreviousPaidOrderDetected StateName = "PreviousPaidOrderDetectedState"
	PaymentError              StateName = "PaymentErrorState"
	PaymentRequestError       StateName = "PaymentRequestErrorState"
	SystemError               StateName = "SystemErrorState"
	WooPaymentsAPIServerError StateName = "WooPaymentsAPIServerErrorState"
)

// IsErrorState reports whether the name is one of the terminal error states
func (n StateName) IsErrorState() bool {
	switch n {
	case PaymentError, PaymentRequestError, SystemError, WooPaymentsAPIServerError:
		return true
	default:
		return false
	}
}

func (n StateName) valid() bool {
	switch n {
	case Initial, Verified, Processed, AuthenticationRequired, PendingAuthentication, Completed,
		DuplicateOrderDetected, PreviousPaidOrderDetected:
		return true
	default:
		return n.IsErrorState()
	}
}

// State is one stage of a payment attempt, bound to the attempt's context
type State interface {
	Name() StateName
	Context() *payment.Context
}

// Request is the checkout input that starts a payment attempt
type Request struct {
	PaymentMethodID    string
	SavedPaymentMethod bool
}

type Starter interface {
	State
	StartProcessing(ctx context.Context, req Request) (State, error)
}

type Processor interface {
	State
	Process(ctx context.Context) (State, error)
}

type Completer interface {
	State
	Complete(ctx context.Context) (State, error)
}

type Responder interface {
	State
	Response(ctx context.Context) (*payment.Response, error)
}

type ProcessingResponder interface {
	State
	ProcessingResponse(ctx context.Context) (*payment.Response, error)
}

// ErrorState is implemented by the terminal error states
type ErrorState interface {
	State
	ShouldLogError() bool
	ShouldMarkOrderAsFailed() bool
	HandleErrorState(ctx context.Context) error
}

// TransitionError is a protocol error, never a payment failure
type TransitionError struct {
	Method string
	State  StateName
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("method %s not available in current state %s", e.Method, e.State)
	}
	return fmt.Sprintf("cannot transition to %s: %s", e.State, e.Reason)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrStateTransition
}

// DependencyError reports a service a state needs but the factory was not given
type DependencyError struct {
	State      StateName
	Dependency string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("state %s requires %s, which is not configured", e.State, e.Dependency)
}

func (e *DependencyError) Is(target error) bool {
	return target == ErrMissingDependency
}

// StartProcessing calls StartProcessing on s, or fails with a TransitionError when s does not offer it.
// The helpers below do the same for the other lifecycle methods.
func StartProcessing(ctx context.Context, s State, req Request) (State, error) {
	st, ok := s.(Starter)
	if !ok {
		return nil, unavailable("StartProcessing", s)
	}
	return st.StartProcessing(ctx, req)
}

func Process(ctx context.Context, s State) (State, error) {
	p, ok := s.(Processor)
	if !ok {
		return nil, unavailable("Process", s)
	}
	return p.Process(ctx)
}

func Complete(ctx context.Context, s State) (State, error) {
	c, ok := s.(Completer)
	if !ok {
		return nil, unavailable("Complete", s)
	}
	return c.Complete(ctx)
}

func Response(ctx context.Context, s State) (*payment.Response, error) {
	r, ok := s.(Responder)
	if !ok {
		return nil, unavailable("Response", s)
	}
	return r.Response(ctx)
}

func ProcessingResponse(ctx context.Context, s State) (*payment.Response, error) {
	r, ok := s.(ProcessingResponder)
	if !ok {
		return nil, unavailable("ProcessingResponse", s)
	}
	return r.ProcessingResponse(ctx)
}

func HandleError(ctx context.Context, s State) error {
	e, ok := s.(ErrorState)
	if !ok {
		return unavailable("HandleErrorState", s)
	}
	return e.HandleErrorState(ctx)
}

func unavailable(method string, s State) error {
	name := StateName("<nil>")
	if s != nil {
		name = s.Name()
	}
	return &TransitionError{Method: method, State: name}
}

// base is embedded by every state
type base struct {
	name    StateName
	pctx    *payment.Context
	factory *Factory
}

func (b *base) Name() StateName {
	return b.name
}

func (b *base) Context() *payment.Context {
	return b.pctx
}

func (b *base) createState(ctx context.Context, name StateName) (State, error) {
	return b.factory.Create(ctx, name, b.pctx)
}

func (b *base) createErrorState(ctx context.Context, name StateName, err error) (State, error) {
	return b.factory.CreateErrorState(ctx, name, b.pctx, err)
}
