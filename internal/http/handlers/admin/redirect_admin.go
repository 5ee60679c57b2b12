package admin

import (
	"errors"
	"strconv"

	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

// RedirectRequest is the admin redirect payload.
type RedirectRequest struct {
	OldPath     string `json:"old_path" binding:"required"`
	NewPath     string `json:"new_path" binding:"required"`
	IsPermanent bool   `json:"is_permanent"`
}

// AdminListRedirects returns the redirect table page.
func (h *Handler) AdminListRedirects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	redirects, total, err := h.RedirectService.List(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "redirect fetch failed", err)
		return
	}
	response.SuccessWithPage(c, redirects, response.BuildPagination(page, pageSize, total))
}

// AdminUpsertRedirect writes a manual redirect mapping. An existing mapping
// for the same old path is re-pointed.
func (h *Handler) AdminUpsertRedirect(c *gin.Context) {
	var req RedirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	redirect, err := h.RedirectService.Upsert(req.OldPath, req.NewPath, req.IsPermanent)
	if err != nil {
		if errors.Is(err, service.ErrRedirectInvalid) {
			respondError(c, response.CodeBadRequest, "redirect paths invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "redirect save failed", err)
		return
	}
	response.Success(c, redirect)
}

// AdminDeleteRedirect removes a redirect mapping.
func (h *Handler) AdminDeleteRedirect(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.RedirectService.Delete(id); err != nil {
		respondError(c, response.CodeInternal, "redirect delete failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
