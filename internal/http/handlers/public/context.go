package public

import (
	"strings"

	handlershared "github.com/sofahub/sofahub-api/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionHeader     = "X-Session-ID"
	sessionCookie     = "cart_session"
	sessionCookieAge  = 30 * 24 * 60 * 60
	sessionCookiePath = "/"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

// sessionID resolves the cart session for this request. The header wins so
// API clients control their own session; browser traffic falls back to the
// cookie, and a fresh session is minted and set when neither is present.
func sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(sessionHeader)); id != "" {
		return id
	}
	if id, err := c.Cookie(sessionCookie); err == nil {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			return trimmed
		}
	}
	id := uuid.NewString()
	c.SetCookie(sessionCookie, id, sessionCookieAge, sessionCookiePath, "", false, true)
	return id
}
