package state

import (
	"context"

	"wcpay-checkout/internal/common/metrics"
	"wcpay-checkout/internal/common/tracing"
	"wcpay-checkout/internal/domain/payment"

	"go.opentelemetry.io/otel/attribute"
)

const transitionsCounter = metrics.StateTransitions

// Factory builds states bound to a payment context
type Factory struct {
	deps Dependencies
}

func NewFactory(deps Dependencies) *Factory {
	return &Factory{deps: deps}
}

// Create returns a ready state for name bound to pctx and records the transition on the context.
// Unknown names fail with a TransitionError and missing services with a DependencyError; in both
// cases nothing is recorded.
func (f *Factory) Create(ctx context.Context, name StateName, pctx *payment.Context) (State, error) {
	if !name.valid() {
		return nil, &TransitionError{State: name, Reason: "not a payment state"}
	}
	if pctx == nil {
		return nil, &TransitionError{State: name, Reason: "no payment context"}
	}
	if err := f.checkDependencies(name); err != nil {
		return nil, err
	}

	s := f.build(name, base{name: name, pctx: pctx, factory: f})

	pctx.LogStateTransition(string(name))
	if f.deps.Metrics != nil {
		f.deps.Metrics.IncrementCounter(transitionsCounter)
	}
	tracing.AddEvent(ctx, "state."+string(name),
		attribute.Int64("order_id", pctx.OrderID()))

	return s, nil
}

// CreateErrorState stores err on the context, then creates the error state
func (f *Factory) CreateErrorState(ctx context.Context, name StateName, pctx *payment.Context, err error) (State, error) {
	if !name.IsErrorState() {
		return nil, &TransitionError{State: name, Reason: "not an error state"}
	}
	if pctx == nil {
		return nil, &TransitionError{State: name, Reason: "no payment context"}
	}

	pctx.SetError(err)
	return f.Create(ctx, name, pctx)
}

func (f *Factory) build(name StateName, b base) State {
	d := f.deps

	switch name {
	case Initial:
		return &InitialState{base: b, orders: d.Orders, duplicates: d.Duplicates}
	case Verified:
		return &VerifiedState{base: b, orders: d.Orders, requests: d.PaymentRequests}
	case Processed:
		return &ProcessedState{base: b, orders: d.Orders}
	case AuthenticationRequired:
		return &AuthenticationRequiredState{base: b, encryption: d.Encryption, nonces: d.Nonces}
	case PendingAuthentication:
		return &PendingAuthenticationState{base: b}
	case Completed:
		return &CompletedState{base: b, orders: d.Orders}
	case DuplicateOrderDetected:
		return &DuplicateOrderDetectedState{base: b, orders: d.Orders}
	case PreviousPaidOrderDetected:
		return &PreviousPaidOrderDetectedState{base: b, orders: d.Orders}
	case PaymentError:
		return &PaymentErrorState{errorState: newErrorState(b, d, true, true)}
	case PaymentRequestError:
		return &PaymentRequestErrorState{errorState: newErrorState(b, d, false, false)}
	case SystemError:
		return &SystemErrorState{errorState: newErrorState(b, d, false, true)}
	case WooPaymentsAPIServerError:
		return &WooPaymentsAPIServerErrorState{errorState: newErrorState(b, d, true, false)}
	}
	return nil
}

func (f *Factory) checkDependencies(name StateName) error {
	d := f.deps

	var missing string
	switch name {
	case Initial:
		missing = firstMissing(map[string]bool{"OrderService": d.Orders != nil, "DuplicatePaymentPreventionService": d.Duplicates != nil})
	case Verified:
		missing = firstMissing(map[string]bool{"OrderService": d.Orders != nil, "PaymentRequestService": d.PaymentRequests != nil})
	case AuthenticationRequired:
		missing = firstMissing(map[string]bool{"CheckoutEncryptionService": d.Encryption != nil, "NonceService": d.Nonces != nil})
	case Processed, Completed, DuplicateOrderDetected, PreviousPaidOrderDetected:
		missing = firstMissing(map[string]bool{"OrderService": d.Orders != nil})
	case PaymentError, PaymentRequestError, SystemError, WooPaymentsAPIServerError:
		missing = firstMissing(map[string]bool{"OrderService": d.Orders != nil, "Logger": d.Logger != nil})
	}

	if missing != "" {
		return &DependencyError{State: name, Dependency: missing}
	}
	return nil
}

func firstMissing(present map[string]bool) string {
	missing := ""
	for dep, ok := range present {
		if !ok && (missing == "" || dep < missing) {
			missing = dep
		}
	}
	return missing
}
