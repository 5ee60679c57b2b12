package admin

import (
	"errors"
	"strconv"

	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoryRequest is the admin payload for room categories and product types.
type CategoryRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

// TagRequest is the admin tag payload.
type TagRequest struct {
	Slug      string `json:"slug" binding:"required"`
	Name      string `json:"name" binding:"required"`
	ColorCode string `json:"color_code"`
}

func (r CategoryRequest) toInput() service.CategoryInput {
	return service.CategoryInput{
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
	}
}

func respondCategoryWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, response.CodeNotFound, "category not found", nil)
	case errors.Is(err, service.ErrSlugTaken):
		respondError(c, response.CodeConflict, "slug already in use", nil)
	case errors.Is(err, service.ErrSlugInvalid):
		respondError(c, response.CodeBadRequest, "slug invalid", nil)
	default:
		respondError(c, response.CodeInternal, "category save failed", err)
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "id invalid", nil)
		return 0, false
	}
	return uint(id), true
}

// AdminListRoomCategories returns all room categories, inactive included.
func (h *Handler) AdminListRoomCategories(c *gin.Context) {
	categories, err := h.CategoryService.ListRoomCategories(false)
	if err != nil {
		respondError(c, response.CodeInternal, "category fetch failed", err)
		return
	}
	response.Success(c, categories)
}

// AdminCreateRoomCategory inserts a room category.
func (h *Handler) AdminCreateRoomCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	category, err := h.CategoryService.CreateRoomCategory(req.toInput())
	if err != nil {
		respondCategoryWriteError(c, err)
		return
	}
	response.Success(c, category)
}

// AdminUpdateRoomCategory saves a room category. A slug rename registers a
// storefront redirect automatically.
func (h *Handler) AdminUpdateRoomCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	category, err := h.CategoryService.UpdateRoomCategory(id, req.toInput())
	if err != nil {
		respondCategoryWriteError(c, err)
		return
	}
	response.Success(c, category)
}

// AdminDeleteRoomCategory soft-deletes a room category.
func (h *Handler) AdminDeleteRoomCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.CategoryService.DeleteRoomCategory(id); err != nil {
		respondCategoryWriteError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AdminListProductTypes returns all product types, inactive included.
func (h *Handler) AdminListProductTypes(c *gin.Context) {
	types, err := h.CategoryService.ListProductTypes(false)
	if err != nil {
		respondError(c, response.CodeInternal, "category fetch failed", err)
		return
	}
	response.Success(c, types)
}

// AdminCreateProductType inserts a product type.
func (h *Handler) AdminCreateProductType(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	productType, err := h.CategoryService.CreateProductType(req.toInput())
	if err != nil {
		respondCategoryWriteError(c, err)
		return
	}
	response.Success(c, productType)
}

// AdminUpdateProductType saves a product type.
func (h *Handler) AdminUpdateProductType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	productType, err := h.CategoryService.UpdateProductType(id, req.toInput())
	if err != nil {
		respondCategoryWriteError(c, err)
		return
	}
	response.Success(c, productType)
}

// AdminDeleteProductType soft-deletes a product type.
func (h *Handler) AdminDeleteProductType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.CategoryService.DeleteProductType(id); err != nil {
		respondCategoryWriteError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AdminListTags returns all tags.
func (h *Handler) AdminListTags(c *gin.Context) {
	tags, err := h.CategoryService.ListTags()
	if err != nil {
		respondError(c, response.CodeInternal, "tag fetch failed", err)
		return
	}
	response.Success(c, tags)
}

// AdminCreateTag inserts a tag.
func (h *Handler) AdminCreateTag(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	tag, err := h.CategoryService.CreateTag(service.TagInput{
		Slug:      req.Slug,
		Name:      req.Name,
		ColorCode: req.ColorCode,
	})
	if err != nil {
		respondCategoryWriteError(c, err)
		return
	}
	response.Success(c, tag)
}

// AdminDeleteTag soft-deletes a tag.
func (h *Handler) AdminDeleteTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.CategoryService.DeleteTag(id); err != nil {
		respondCategoryWriteError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
