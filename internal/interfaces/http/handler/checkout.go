package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// CheckoutHandler handles checkout and payment webhook endpoints
type CheckoutHandler struct {
	BaseHandler
	checkoutService *checkout.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *checkout.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// RegisterRoutes registers checkout routes
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	co := rg.Group("/checkout")
	{
		co.POST("/session", h.CreateSession)
		co.POST("/confirm", h.Confirm)
	}
	rg.POST("/webhooks/payment", h.PaymentWebhook)
}

// CreateSession snapshots and prices the shopper's cart and opens a
// payment session with the provider
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.checkoutService.CreateSession(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Confirm verifies the payment session with the provider and records the
// order. Confirming an already recorded session returns the existing
// receipt.
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req checkout.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipt, err := h.checkoutService.Confirm(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// PaymentWebhook receives provider callbacks. The raw body is required
// for signature verification, so the payload is read before any binding.
func (h *CheckoutHandler) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read webhook payload")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.BadRequest(c, "Missing webhook signature")
		return
	}

	if err := h.checkoutService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"received": true}))
}
