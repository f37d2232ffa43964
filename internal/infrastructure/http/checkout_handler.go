package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"wcpay-checkout/internal/application/checkout"
	"wcpay-checkout/internal/domain/payment"

	"github.com/gin-gonic/gin"
)

const resultFailure = "failure"

type CheckoutGateway interface {
	ProcessPayment(ctx context.Context, req checkout.ProcessPaymentRequest) (*payment.Response, error)
	UpdateOrderStatus(ctx context.Context, req checkout.UpdateOrderStatusRequest) (*payment.Response, error)
}

type CheckoutHandler struct {
	gateway CheckoutGateway
}

func NewCheckoutHandler(g CheckoutGateway) *CheckoutHandler {
	return &CheckoutHandler{gateway: g}
}

func (h *CheckoutHandler) ProcessPayment(c *gin.Context) {
	var req checkout.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"result": resultFailure, "messages": err.Error()})
		return
	}

	resp, err := h.gateway.ProcessPayment(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"result": resultFailure, "messages": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"result": resultFailure, "messages": "invalid order id"})
		return
	}

	var req checkout.UpdateOrderStatusRequest
	req.OrderID = orderID
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"result": resultFailure, "messages": err.Error()})
		return
	}
	req.OrderID = orderID

	resp, err := h.gateway.UpdateOrderStatus(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"result": resultFailure, "messages": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	var (
		cardErr   *payment.CardError
		serverErr *payment.APIServerError
		notFound  *payment.OrderNotFoundError
		reqErr    *payment.RequestError
	)

	switch {
	case errors.Is(err, checkout.ErrInvalidNonce):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &reqErr), errors.Is(err, checkout.ErrIntentMismatch):
		return http.StatusBadRequest
	case errors.As(err, &cardErr):
		return http.StatusPaymentRequired
	case errors.As(err, &serverErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
