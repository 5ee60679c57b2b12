package public

import (
	"strconv"

	"github.com/sofahub/sofahub-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest adds a variation to the cart.
type AddCartItemRequest struct {
	VariationID uint `json:"variation_id" binding:"required"`
	Quantity    int  `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest sets a line quantity. Zero removes the line.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart returns the session cart with current prices.
func (h *Handler) GetCart(c *gin.Context) {
	cart, err := h.CartService.GetCart(sessionID(c))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// AddCartItem puts a variation in the cart.
func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	cart, err := h.CartService.AddItem(sessionID(c), req.VariationID, req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// UpdateCartItem changes a line quantity.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	variationID, err := strconv.ParseUint(c.Param("variation_id"), 10, 64)
	if err != nil || variationID == 0 {
		respondError(c, response.CodeBadRequest, "variation id invalid", nil)
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	cart, err := h.CartService.UpdateItem(sessionID(c), uint(variationID), *req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// RemoveCartItem deletes a line.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	variationID, err := strconv.ParseUint(c.Param("variation_id"), 10, 64)
	if err != nil || variationID == 0 {
		respondError(c, response.CodeBadRequest, "variation id invalid", nil)
		return
	}
	cart, err := h.CartService.RemoveItem(sessionID(c), uint(variationID))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// ClearCart empties the session cart.
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.CartService.ClearCart(sessionID(c)); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
