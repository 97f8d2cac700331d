package api

import (
	"net/http"

	"devforge/backend/internal/models"
	"devforge/backend/internal/service"
	"devforge/backend/pkg/logger"
	"devforge/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles subscription payment requests
type PaymentHandler struct {
	payments *service.PaymentService
	users    *service.UserService
	logger   *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *service.PaymentService, users *service.UserService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, users: users, logger: logger}
}

// RegisterRoutes registers payment routes on an authenticated group
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("/orders", h.CreateOrder)
		payments.POST("/verify", h.Verify)
	}
}

// CreateOrder registers an order with the payment gateway
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order request"})
		return
	}

	claims := middleware.Claims(c)
	user, err := h.users.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	order, err := h.payments.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Order creation failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId":  order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"user":     user.ToResponse(),
	})
}

// Verify checks the gateway signature and records the payment
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification request"})
		return
	}

	claims := middleware.Claims(c)
	if err := h.payments.Verify(c.Request.Context(), claims.UserID, &req); err != nil {
		if err == service.ErrInvalidSignature {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid signature"})
			return
		}
		h.logger.Error("Payment verification failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error verifying payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
