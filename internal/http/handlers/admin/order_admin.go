package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/repository"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func respondOrderTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(c, response.CodeNotFound, "order not found", nil)
	case errors.Is(err, service.ErrOrderStatusInvalid):
		respondError(c, response.CodeConflict, "order status does not allow this operation", nil)
	default:
		respondError(c, response.CodeInternal, "order update failed", err)
	}
}

// AdminListOrders returns the back-office order page.
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      strings.TrimSpace(c.Query("status")),
		CartSession: strings.TrimSpace(c.Query("cart_session")),
		Phone:       strings.TrimSpace(c.Query("phone")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// AdminGetOrder returns one order with its items.
func (h *Handler) AdminGetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.Success(c, order)
}

// AdminCompleteOrder closes a deposit-paid order after the balance was
// collected at delivery.
func (h *Handler) AdminCompleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.MarkCompleted(id)
	if err != nil {
		respondOrderTransitionError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminCancelOrder voids an order and returns its reserved stock.
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(id)
	if err != nil {
		respondOrderTransitionError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminQueryPaymentStatus asks the gateway for the state of an order's
// payment prompt. Diagnostic for orders whose callback never arrived.
func (h *Handler) AdminQueryPaymentStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.PaymentService.QueryPaymentStatus(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "order has no payment prompt to query", nil)
		default:
			respondError(c, response.CodeUpstreamFailed, "payment status query failed", err)
		}
		return
	}
	response.Success(c, result)
}
