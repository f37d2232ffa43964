package http

import (
	"errors"
	"net/http"
	"strconv"

	"wcpay-checkout/internal/domain/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateOrderRequest struct {
	OrderID    int64  `json:"order_id" binding:"required"`
	Total      int64  `json:"total"`
	Currency   string `json:"currency" binding:"required"`
	CustomerID string `json:"customer_id"`
	CartHash   string `json:"cart_hash"`
}

// OrderHandler exposes the store orders the checkout pays for
type OrderHandler struct {
	repo order.Repository
}

func NewOrderHandler(repo order.Repository) *OrderHandler {
	return &OrderHandler{repo: repo}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Total < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "total must not be negative"})
		return
	}

	if _, err := h.repo.Get(c.Request.Context(), req.OrderID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "order already exists"})
		return
	} else if !errors.Is(err, order.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	o := &order.Order{
		ID:         req.OrderID,
		OrderKey:   "wc_order_" + uuid.New().String()[:13],
		Status:     order.StatusPending,
		Total:      req.Total,
		Currency:   req.Currency,
		CustomerID: req.CustomerID,
		CartHash:   req.CartHash,
	}
	if err := h.repo.Save(c.Request.Context(), o); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, orderView(o))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	o, err := h.repo.Get(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, orderView(o))
}

func orderView(o *order.Order) gin.H {
	return gin.H{
		"order_id":       o.ID,
		"order_key":      o.OrderKey,
		"status":         o.Status,
		"total":          o.Total,
		"currency":       o.Currency,
		"intent_id":      o.IntentID,
		"intent_status":  o.IntentStatus,
		"transaction_id": o.TransactionID,
		"paid":           o.IsPaid(),
		"notes":          o.Notes,
	}
}
