package public

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

const callbackLogBodyLimit = 2048

// mpesaAck is the acknowledgement Daraja expects back from a callback URL.
type mpesaAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// MpesaCallback receives the asynchronous STK-push result from Daraja.
// A malformed payload is refused with 400 and a callback naming no known
// order with 404; internal failures return 500 so the gateway retries, which
// is safe because reconciliation is idempotent.
func (h *Handler) MpesaCallback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		requestLog(c).Warnw("mpesa_callback_body_read_failed", "error", err)
		c.JSON(http.StatusBadRequest, mpesaAck{ResultCode: 1, ResultDesc: "Rejected"})
		return
	}

	requestLog(c).Infow("mpesa_callback_received",
		"client_ip", c.ClientIP(),
		"body", truncateCallbackBody(body),
	)

	if err := h.PaymentService.HandleMpesaCallback(c.Request.Context(), body); err != nil {
		switch {
		case errors.Is(err, service.ErrCallbackInvalid):
			requestLog(c).Warnw("mpesa_callback_invalid", "error", err)
			c.JSON(http.StatusBadRequest, mpesaAck{ResultCode: 1, ResultDesc: "Rejected"})
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, mpesaAck{ResultCode: 1, ResultDesc: "Order not found"})
		default:
			requestLog(c).Errorw("mpesa_callback_apply_failed", "error", err)
			c.JSON(http.StatusInternalServerError, mpesaAck{ResultCode: 1, ResultDesc: "Processing failed"})
		}
		return
	}

	c.JSON(http.StatusOK, mpesaAck{ResultCode: 0, ResultDesc: "Accepted"})
}

func truncateCallbackBody(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if len(raw) <= callbackLogBodyLimit {
		return raw
	}
	return raw[:callbackLogBodyLimit] + "...(truncated)"
}
