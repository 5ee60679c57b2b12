package service

import (
	"strings"

	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/repository"

	"gorm.io/gorm"
)

// CategoryInput is the admin payload for room categories and product types.
type CategoryInput struct {
	Slug        string
	Name        string
	Description string
	IsActive    bool
	SortOrder   int
}

// TagInput is the admin tag payload.
type TagInput struct {
	Slug      string
	Name      string
	ColorCode string
}

// CategoryService manages the catalog taxonomies.
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	redirectRepo repository.RedirectRepository
}

// NewCategoryService creates the category service.
func NewCategoryService(categoryRepo repository.CategoryRepository, redirectRepo repository.RedirectRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		redirectRepo: redirectRepo,
	}
}

// ListRoomCategories returns room categories.
func (s *CategoryService) ListRoomCategories(onlyActive bool) ([]models.RoomCategory, error) {
	return s.categoryRepo.ListRoomCategories(onlyActive)
}

// ListProductTypes returns product types.
func (s *CategoryService) ListProductTypes(onlyActive bool) ([]models.ProductType, error) {
	return s.categoryRepo.ListProductTypes(onlyActive)
}

// ListTags returns all tags.
func (s *CategoryService) ListTags() ([]models.Tag, error) {
	return s.categoryRepo.ListTags()
}

// CreateRoomCategory inserts a room category.
func (s *CategoryService) CreateRoomCategory(input CategoryInput) (*models.RoomCategory, error) {
	if err := ValidateSlug(input.Slug); err != nil {
		return nil, err
	}
	count, err := s.categoryRepo.CountRoomCategoryBySlug(input.Slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}
	category := models.RoomCategory{
		Slug:        strings.TrimSpace(input.Slug),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		IsActive:    input.IsActive,
		SortOrder:   input.SortOrder,
	}
	if err := s.categoryRepo.CreateRoomCategory(&category); err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateRoomCategory saves a room category. A slug change registers a
// redirect from the old room path inside the same transaction.
func (s *CategoryService) UpdateRoomCategory(id uint, input CategoryInput) (*models.RoomCategory, error) {
	category, err := s.categoryRepo.GetRoomCategoryByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if err := ValidateSlug(input.Slug); err != nil {
		return nil, err
	}
	count, err := s.categoryRepo.CountRoomCategoryBySlug(input.Slug, &id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	oldSlug := category.Slug
	category.Slug = strings.TrimSpace(input.Slug)
	category.Name = strings.TrimSpace(input.Name)
	category.Description = input.Description
	category.IsActive = input.IsActive
	category.SortOrder = input.SortOrder

	err = s.categoryRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.categoryRepo.WithTx(tx).UpdateRoomCategory(category); err != nil {
			return err
		}
		if oldSlug != category.Slug {
			redirect := &models.Redirect{
				OldPath:     "/rooms/" + oldSlug,
				NewPath:     "/rooms/" + category.Slug,
				IsPermanent: true,
			}
			if err := s.redirectRepo.WithTx(tx).Upsert(redirect); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if oldSlug != category.Slug {
		logger.Infow("room_category_slug_renamed", "category_id", category.ID, "old_slug", oldSlug, "new_slug", category.Slug)
	}
	return category, nil
}

// DeleteRoomCategory soft-deletes a room category.
func (s *CategoryService) DeleteRoomCategory(id uint) error {
	category, err := s.categoryRepo.GetRoomCategoryByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	return s.categoryRepo.DeleteRoomCategory(id)
}

// CreateProductType inserts a product type.
func (s *CategoryService) CreateProductType(input CategoryInput) (*models.ProductType, error) {
	if err := ValidateSlug(input.Slug); err != nil {
		return nil, err
	}
	count, err := s.categoryRepo.CountProductTypeBySlug(input.Slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}
	productType := models.ProductType{
		Slug:        strings.TrimSpace(input.Slug),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		IsActive:    input.IsActive,
		SortOrder:   input.SortOrder,
	}
	if err := s.categoryRepo.CreateProductType(&productType); err != nil {
		return nil, err
	}
	return &productType, nil
}

// UpdateProductType saves a product type, registering a redirect on rename.
func (s *CategoryService) UpdateProductType(id uint, input CategoryInput) (*models.ProductType, error) {
	productType, err := s.categoryRepo.GetProductTypeByID(id)
	if err != nil {
		return nil, err
	}
	if productType == nil {
		return nil, ErrCategoryNotFound
	}
	if err := ValidateSlug(input.Slug); err != nil {
		return nil, err
	}
	count, err := s.categoryRepo.CountProductTypeBySlug(input.Slug, &id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	oldSlug := productType.Slug
	productType.Slug = strings.TrimSpace(input.Slug)
	productType.Name = strings.TrimSpace(input.Name)
	productType.Description = input.Description
	productType.IsActive = input.IsActive
	productType.SortOrder = input.SortOrder

	err = s.categoryRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.categoryRepo.WithTx(tx).UpdateProductType(productType); err != nil {
			return err
		}
		if oldSlug != productType.Slug {
			redirect := &models.Redirect{
				OldPath:     "/types/" + oldSlug,
				NewPath:     "/types/" + productType.Slug,
				IsPermanent: true,
			}
			if err := s.redirectRepo.WithTx(tx).Upsert(redirect); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return productType, nil
}

// DeleteProductType soft-deletes a product type.
func (s *CategoryService) DeleteProductType(id uint) error {
	productType, err := s.categoryRepo.GetProductTypeByID(id)
	if err != nil {
		return err
	}
	if productType == nil {
		return ErrCategoryNotFound
	}
	return s.categoryRepo.DeleteProductType(id)
}

// CreateTag inserts a tag.
func (s *CategoryService) CreateTag(input TagInput) (*models.Tag, error) {
	if err := ValidateSlug(input.Slug); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCategoryNotFound
	}
	tag := models.Tag{
		Slug: strings.TrimSpace(input.Slug),
		Name: name,
	}
	if color := strings.TrimSpace(input.ColorCode); color != "" {
		tag.ColorCode = color
	}
	if err := s.categoryRepo.CreateTag(&tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag soft-deletes a tag.
func (s *CategoryService) DeleteTag(id uint) error {
	tag, err := s.categoryRepo.GetTagByID(id)
	if err != nil {
		return err
	}
	if tag == nil {
		return ErrCategoryNotFound
	}
	return s.categoryRepo.DeleteTag(id)
}
