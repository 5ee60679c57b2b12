package public

import (
	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest is the customer-submitted checkout form.
type CheckoutRequest struct {
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerEmail   string `json:"customer_email" binding:"required"`
	CustomerPhone   string `json:"customer_phone" binding:"required"`
	MpesaPhone      string `json:"mpesa_phone"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
	ShippingCity    string `json:"shipping_city" binding:"required"`
	ShippingZipCode string `json:"shipping_zip_code"`
}

// Checkout converts the session cart into an order and sends the deposit
// payment prompt to the customer's phone.
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.CheckoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		SessionID:       sessionID(c),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		MpesaPhone:      req.MpesaPhone,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingZipCode: req.ShippingZipCode,
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	response.Success(c, result)
}
