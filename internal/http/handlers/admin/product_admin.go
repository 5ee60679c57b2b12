package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/repository"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest is the admin product payload.
type ProductRequest struct {
	Slug            string           `json:"slug" binding:"required"`
	Name            string           `json:"name" binding:"required"`
	Description     string           `json:"description"`
	BasePrice       decimal.Decimal  `json:"base_price" binding:"required"`
	SalePrice       *decimal.Decimal `json:"sale_price"`
	SaleStart       *time.Time       `json:"sale_start"`
	SaleEnd         *time.Time       `json:"sale_end"`
	IsActive        bool             `json:"is_active"`
	RoomCategoryIDs []uint           `json:"room_category_ids"`
	ProductTypeIDs  []uint           `json:"product_type_ids"`
	TagIDs          []uint           `json:"tag_ids"`
}

// VariationRequest is the admin variation payload.
type VariationRequest struct {
	SKU           string                     `json:"sku" binding:"required"`
	Attributes    models.VariationAttributes `json:"attributes"`
	StockQuantity int                        `json:"stock_quantity"`
	PriceModifier decimal.Decimal            `json:"price_modifier"`
	IsActive      bool                       `json:"is_active"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Slug:            r.Slug,
		Name:            r.Name,
		Description:     r.Description,
		BasePrice:       r.BasePrice,
		SalePrice:       r.SalePrice,
		SaleStart:       r.SaleStart,
		SaleEnd:         r.SaleEnd,
		IsActive:        r.IsActive,
		RoomCategoryIDs: r.RoomCategoryIDs,
		ProductTypeIDs:  r.ProductTypeIDs,
		TagIDs:          r.TagIDs,
	}
}

func respondProductWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "product not found", nil)
	case errors.Is(err, service.ErrSlugTaken):
		respondError(c, response.CodeConflict, "slug already in use", nil)
	case errors.Is(err, service.ErrSlugInvalid):
		respondError(c, response.CodeBadRequest, "slug invalid", nil)
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, response.CodeBadRequest, "unknown taxonomy id", nil)
	case errors.Is(err, service.ErrProductNotAvailable):
		respondError(c, response.CodeBadRequest, "product payload invalid", nil)
	default:
		respondError(c, response.CodeInternal, "product save failed", err)
	}
}

// AdminListProducts returns the back-office product page, inactive included.
func (h *Handler) AdminListProducts(c *gin.Context) {
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
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// AdminGetProduct returns one product with variations and taxonomy.
func (h *Handler) AdminGetProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}
	product, err := h.ProductService.GetByID(uint(productID))
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

// AdminCreateProduct inserts a product.
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.ProductService.CreateProduct(req.toInput())
	if err != nil {
		respondProductWriteError(c, err)
		return
	}
	response.Success(c, product)
}

// AdminUpdateProduct saves a product. Renaming the slug registers a
// storefront redirect automatically.
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.ProductService.UpdateProduct(uint(productID), req.toInput())
	if err != nil {
		respondProductWriteError(c, err)
		return
	}
	response.Success(c, product)
}

// AdminDeleteProduct soft-deletes a product.
func (h *Handler) AdminDeleteProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}
	if err := h.ProductService.DeleteProduct(uint(productID)); err != nil {
		respondProductWriteError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func respondVariationWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "product not found", nil)
	case errors.Is(err, service.ErrVariationNotFound):
		respondError(c, response.CodeNotFound, "variation not found", nil)
	case errors.Is(err, service.ErrSKUTaken):
		respondError(c, response.CodeConflict, "sku already in use", nil)
	case errors.Is(err, service.ErrQuantityInvalid):
		respondError(c, response.CodeBadRequest, "stock quantity invalid", nil)
	default:
		respondError(c, response.CodeInternal, "variation save failed", err)
	}
}

// AdminCreateVariation adds a variation to a product.
func (h *Handler) AdminCreateVariation(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}
	var req VariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	variation, err := h.ProductService.CreateVariation(service.VariationInput{
		ProductID:     uint(productID),
		SKU:           req.SKU,
		Attributes:    req.Attributes,
		StockQuantity: req.StockQuantity,
		PriceModifier: req.PriceModifier,
		IsActive:      req.IsActive,
	})
	if err != nil {
		respondVariationWriteError(c, err)
		return
	}
	response.Success(c, variation)
}

// AdminUpdateVariation saves a variation.
func (h *Handler) AdminUpdateVariation(c *gin.Context) {
	variationID, err := strconv.ParseUint(c.Param("variation_id"), 10, 64)
	if err != nil || variationID == 0 {
		respondError(c, response.CodeBadRequest, "variation id invalid", nil)
		return
	}
	var req VariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	variation, err := h.ProductService.UpdateVariation(uint(variationID), service.VariationInput{
		SKU:           req.SKU,
		Attributes:    req.Attributes,
		StockQuantity: req.StockQuantity,
		PriceModifier: req.PriceModifier,
		IsActive:      req.IsActive,
	})
	if err != nil {
		respondVariationWriteError(c, err)
		return
	}
	response.Success(c, variation)
}

// AdminDeleteVariation soft-deletes a variation.
func (h *Handler) AdminDeleteVariation(c *gin.Context) {
	variationID, err := strconv.ParseUint(c.Param("variation_id"), 10, 64)
	if err != nil || variationID == 0 {
		respondError(c, response.CodeBadRequest, "variation id invalid", nil)
		return
	}
	if err := h.ProductService.DeleteVariation(uint(variationID)); err != nil {
		respondVariationWriteError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
