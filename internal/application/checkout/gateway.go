package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"wcpay-checkout/internal/application/payment/state"
	"wcpay-checkout/internal/common/configs"
	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/common/tracing"
	"wcpay-checkout/internal/domain/events"
	"wcpay-checkout/internal/domain/order"
	"wcpay-checkout/internal/domain/payment"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidNonce   = errors.New("invalid or expired nonce")
	ErrIntentMismatch = errors.New("intent does not belong to the order")
)

const authenticationFailedMessage = "We are unable to authenticate this payment method. Please choose a different payment method and try again."

type IntentRetriever interface {
	GetIntent(ctx context.Context, intentID string) (*payment.Intent, error)
}

type NonceVerifier interface {
	Verify(nonce, action, subject string) bool
}

// OutcomePublisher receives one event per finished attempt
type OutcomePublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ProcessPaymentRequest struct {
	OrderID            int64  `json:"order_id" binding:"required"`
	PaymentMethodID    string `json:"payment_method"`
	SavedPaymentMethod bool   `json:"saved_payment_method"`
}

// UpdateOrderStatusRequest is sent by the checkout page once the shopper finished authentication
type UpdateOrderStatusRequest struct {
	OrderID  int64  `json:"order_id" binding:"required"`
	IntentID string `json:"intent_id" binding:"required"`
	Nonce    string `json:"nonce" binding:"required"`
}

// Gateway is the entry point of checkout payments. It drives the payment states and turns the
// final state into a response.
type Gateway struct {
	factory   *state.Factory
	orders    state.OrderService
	intents   IntentRetriever
	nonces    NonceVerifier
	publisher OutcomePublisher
	tracer    tracing.Tracer
	logger    logger.Logger
}

// NewGateway builds a gateway over the state dependencies. publisher may be nil.
func NewGateway(deps state.Dependencies, intents IntentRetriever, nonces NonceVerifier, publisher OutcomePublisher, l logger.Logger) *Gateway {
	return &Gateway{
		factory:   state.NewFactory(deps),
		orders:    deps.Orders,
		intents:   intents,
		nonces:    nonces,
		publisher: publisher,
		tracer:    tracing.New(configs.ServiceNameCheckout),
		logger:    l,
	}
}

// ProcessPayment runs a checkout attempt for the order
func (g *Gateway) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*payment.Response, error) {
	ctx, span := g.tracer.Start(ctx, "checkout.process_payment", attribute.Int64("order_id", req.OrderID))
	defer span.End()

	pctx := payment.NewContext(req.OrderID)

	initial, err := g.factory.Create(ctx, state.Initial, pctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	final, err := state.StartProcessing(ctx, initial, state.Request{
		PaymentMethodID:    req.PaymentMethodID,
		SavedPaymentMethod: req.SavedPaymentMethod,
	})
	if err != nil {
		g.logger.Error("Payment processing failed",
			logger.Field{Key: "order_id", Value: req.OrderID},
			logger.Field{Key: "error", Value: err})
		g.publishOutcome(ctx, pctx, events.TypePaymentFailed, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp, err := g.resolve(ctx, final)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("payment.final_state", string(final.Name())))
	return resp, err
}

// UpdateOrderStatus finishes an attempt that required authentication. The intent is read back
// from the payments API; a successful intent completes the order and any other status fails it.
func (g *Gateway) UpdateOrderStatus(ctx context.Context, req UpdateOrderStatusRequest) (*payment.Response, error) {
	ctx, span := g.tracer.Start(ctx, "checkout.update_order_status",
		attribute.Int64("order_id", req.OrderID),
		attribute.String("intent_id", req.IntentID))
	defer span.End()

	if !g.nonces.Verify(req.Nonce, configs.UpdateOrderStatusNonceAction, strconv.FormatInt(req.OrderID, 10)) {
		return nil, ErrInvalidNonce
	}

	o, err := g.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	intent, err := g.intents.GetIntent(ctx, req.IntentID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to retrieve intent %s: %w", req.IntentID, err)
	}
	if !intentBelongsTo(intent, o) {
		return nil, ErrIntentMismatch
	}

	pctx := payment.NewContext(o.ID)
	pctx.SetAmount(o.Total)
	pctx.SetCurrency(o.Currency)
	pctx.SetCustomerID(o.CustomerID)
	pctx.SetCartHash(o.CartHash)
	pctx.SetPaymentMethod(&payment.PaymentMethod{ID: intent.PaymentMethodID})
	pctx.SetIntent(intent)

	if o.IsPaid() {
		completed, err := g.factory.Create(ctx, state.Completed, pctx)
		if err != nil {
			return nil, err
		}
		return state.ProcessingResponse(ctx, completed)
	}

	var final state.State
	if intent.Status.IsSuccessful() {
		processed, err := g.factory.Create(ctx, state.Processed, pctx)
		if err != nil {
			return nil, err
		}
		if final, err = state.Complete(ctx, processed); err != nil {
			g.publishOutcome(ctx, pctx, events.TypePaymentFailed, err)
			return nil, err
		}
	} else {
		authErr := &payment.CardError{Code: "payment_intent_authentication_failure", Message: authenticationFailedMessage}
		if final, err = g.factory.CreateErrorState(ctx, state.PaymentError, pctx, authErr); err != nil {
			return nil, err
		}
	}

	resp, err := g.resolve(ctx, final)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return resp, err
}

// resolve turns a final state into the checkout response and publishes the outcome
func (g *Gateway) resolve(ctx context.Context, s state.State) (*payment.Response, error) {
	pctx := s.Context()

	switch name := s.Name(); {
	case name == state.Completed:
		resp, err := state.ProcessingResponse(ctx, s)
		if err != nil {
			return nil, err
		}
		g.publishOutcome(ctx, pctx, events.TypePaymentCompleted, nil)
		return resp, nil

	case name == state.AuthenticationRequired:
		resp, err := state.Response(ctx, s)
		if err != nil {
			return nil, err
		}
		if _, err := g.factory.Create(ctx, state.PendingAuthentication, pctx); err != nil {
			return nil, err
		}
		g.publishOutcome(ctx, pctx, events.TypePaymentAuthenticationRequired, nil)
		return resp, nil

	case name == state.DuplicateOrderDetected || name == state.PreviousPaidOrderDetected:
		resp, err := state.Response(ctx, s)
		if err != nil {
			return nil, err
		}
		g.publishOutcome(ctx, pctx, events.TypeDuplicatePaymentPrevented, nil)
		return resp, nil

	case name.IsErrorState():
		err := state.HandleError(ctx, s)
		g.publishOutcome(ctx, pctx, events.TypePaymentFailed, err)
		return nil, err
	}

	return nil, &state.TransitionError{State: s.Name(), Reason: "not a final state"}
}

func (g *Gateway) publishOutcome(ctx context.Context, pctx *payment.Context, eventType string, cause error) {
	if g.publisher == nil {
		return
	}

	transitions := pctx.TransitionLog()
	data := events.PaymentOutcomeData{
		OrderID:            pctx.OrderID(),
		Amount:             pctx.Amount(),
		Currency:           pctx.Currency(),
		Transitions:        transitions,
		DuplicateOfOrderID: pctx.DuplicateOrderID(),
	}
	if len(transitions) > 0 {
		data.FinalState = transitions[len(transitions)-1]
	}
	if intent := pctx.Intent(); intent != nil {
		data.IntentID = intent.ID
	}
	if cause != nil {
		data.Reason = cause.Error()
	}

	event := events.NewPaymentOutcome(eventType, data, events.EventMetadata{
		CorrelationID: strconv.FormatInt(pctx.OrderID(), 10),
		TraceID:       traceID(ctx),
		Source:        configs.ServiceNameCheckout,
	})

	if err := g.publisher.Publish(ctx, event); err != nil {
		g.logger.Error("Failed to publish payment outcome",
			logger.Field{Key: "order_id", Value: pctx.OrderID()},
			logger.Field{Key: "event_type", Value: eventType},
			logger.Field{Key: "error", Value: err})
	}
}

func intentBelongsTo(intent *payment.Intent, o *order.Order) bool {
	if o.IntentID != "" {
		return o.IntentID == intent.ID
	}
	return intent.Metadata["order_id"] == strconv.FormatInt(o.ID, 10)
}

func traceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
