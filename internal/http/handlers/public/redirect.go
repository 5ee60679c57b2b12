package public

import (
	"errors"

	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ResolveRedirect looks up the forwarding target for a retired path, for
// frontends that route client-side and cannot rely on HTTP redirects.
func (h *Handler) ResolveRedirect(c *gin.Context) {
	path := c.Query("path")
	redirect, err := h.RedirectService.Resolve(path)
	if err != nil {
		if errors.Is(err, service.ErrRedirectNotFound) {
			respondError(c, response.CodeNotFound, "redirect not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "redirect lookup failed", err)
		return
	}
	response.Success(c, gin.H{
		"old_path":     redirect.OldPath,
		"new_path":     redirect.NewPath,
		"is_permanent": redirect.IsPermanent,
	})
}
