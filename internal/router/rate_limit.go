package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sofahub/sofahub-api/internal/cache"
	"github.com/sofahub/sofahub-api/internal/config"
	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/logger"

	"github.com/gin-gonic/gin"
)

// RateLimitKeyFunc derives the rate-limit subject for a request.
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitMiddleware counts requests per subject in redis and rejects the
// overflow. With the cache disabled or the rule zeroed it passes everything
// through.
func RateLimitMiddleware(scope string, rule config.RateLimitConfig, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	cacheRule := cache.RateLimitRule{
		Window:      time.Duration(rule.WindowSeconds) * time.Second,
		MaxAttempts: rule.MaxAttempts,
		Block:       time.Duration(rule.BlockSeconds) * time.Second,
	}
	return func(c *gin.Context) {
		subject := ""
		if keyFunc != nil {
			subject = strings.TrimSpace(keyFunc(c))
		}
		if subject == "" {
			subject = c.ClientIP()
		}

		allowed, err := cache.AllowRate(c.Request.Context(), scope, subject, cacheRule)
		if err != nil {
			// Redis trouble must not lock customers out.
			logger.Warnw("rate_limit_check_failed", "scope", scope, "error", err)
		}
		if !allowed {
			response.Error(c, response.CodeTooManyRequests, "too many requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

// KeyByIP keys the limit on the client address.
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField keys the limit on a JSON body field plus the client
// address, so one address cannot burn another subject's budget.
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	value, ok := payload[field]
	if !ok {
		return ""
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}
