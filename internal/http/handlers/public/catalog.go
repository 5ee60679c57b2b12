package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/repository"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts returns the storefront catalog page.
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	roomCategoryID, _ := strconv.ParseUint(c.Query("room_category_id"), 10, 64)
	productTypeID, _ := strconv.ParseUint(c.Query("product_type_id"), 10, 64)
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:           page,
		PageSize:       pageSize,
		RoomCategoryID: uint(roomCategoryID),
		ProductTypeID:  uint(productTypeID),
		Search:         search,
		OnlyActive:     true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetProduct returns one storefront product by slug.
func (h *Handler) GetProduct(c *gin.Context) {
	slug := c.Param("slug")

	product, err := h.ProductService.GetBySlug(slug, true)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	response.Success(c, product)
}

// ListRoomCategories returns the active room categories.
func (h *Handler) ListRoomCategories(c *gin.Context) {
	categories, err := h.CategoryService.ListRoomCategories(true)
	if err != nil {
		respondError(c, response.CodeInternal, "category fetch failed", err)
		return
	}
	response.Success(c, categories)
}

// ListProductTypes returns the active product types.
func (h *Handler) ListProductTypes(c *gin.Context) {
	types, err := h.CategoryService.ListProductTypes(true)
	if err != nil {
		respondError(c, response.CodeInternal, "category fetch failed", err)
		return
	}
	response.Success(c, types)
}

// ListTags returns all tags.
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.CategoryService.ListTags()
	if err != nil {
		respondError(c, response.CodeInternal, "tag fetch failed", err)
		return
	}
	response.Success(c, tags)
}
