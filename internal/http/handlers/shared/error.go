package shared

import (
	"github.com/sofahub/sofahub-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RespondError writes an error envelope and logs the underlying error when
// one is present.
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}
