package public

import (
	"strconv"

	"github.com/sofahub/sofahub-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListOrders returns the orders placed from this session.
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListSessionOrders(sessionID(c), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder returns one order when it belongs to this session.
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}
	order, err := h.OrderService.GetSessionOrder(sessionID(c), uint(orderID))
	if err != nil {
		respondSessionOrderError(c, err)
		return
	}
	response.Success(c, order)
}
