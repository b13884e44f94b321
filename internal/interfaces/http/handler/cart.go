package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// CartHandler handles cart API endpoints. Every route works for both
// guests (X-Session-ID header) and authenticated shoppers.
type CartHandler struct {
	BaseHandler
	cartService *appcart.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *appcart.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.Get)
		cart.DELETE("", h.Clear)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items/:id", h.UpsertLine)
		cart.DELETE("/items/:id", h.RemoveLine)
	}
}

// Get returns the current cart with live product data
func (h *CartHandler) Get(c *gin.Context) {
	owner, err := getOwner(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.cartService.Get(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AddItem adds one unit of a product, incrementing the line when the
// product is already in the cart
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, err := getOwner(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req appcart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.cartService.AddItem(c.Request.Context(), owner, req.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpsertLine sets a line's quantity directly. Quantity zero removes the line.
func (h *CartHandler) UpsertLine(c *gin.Context) {
	owner, err := getOwner(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req appcart.UpsertLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.cartService.UpsertLine(c.Request.Context(), owner, uuid.MustParse(idReq.ID), *req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveLine removes a product from the cart. Removing an absent product
// is a no-op.
func (h *CartHandler) RemoveLine(c *gin.Context) {
	owner, err := getOwner(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.cartService.RemoveLine(c.Request.Context(), owner, uuid.MustParse(idReq.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Clear empties the cart
func (h *CartHandler) Clear(c *gin.Context) {
	owner, err := getOwner(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), owner); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
