package repository

import (
	"errors"

	"github.com/sofahub/sofahub-api/internal/models"

	"gorm.io/gorm"
)

// RedirectRepository is the redirect data access interface.
type RedirectRepository interface {
	GetByOldPath(oldPath string) (*models.Redirect, error)
	List(page, pageSize int) ([]models.Redirect, int64, error)
	Upsert(redirect *models.Redirect) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) RedirectRepository
}

// GormRedirectRepository is the GORM implementation.
type GormRedirectRepository struct {
	db *gorm.DB
}

// NewRedirectRepository creates the redirect repository.
func NewRedirectRepository(db *gorm.DB) *GormRedirectRepository {
	return &GormRedirectRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRedirectRepository) WithTx(tx *gorm.DB) RedirectRepository {
	if tx == nil {
		return r
	}
	return &GormRedirectRepository{db: tx}
}

// GetByOldPath returns the redirect registered for a retired path, nil when
// absent.
func (r *GormRedirectRepository) GetByOldPath(oldPath string) (*models.Redirect, error) {
	var redirect models.Redirect
	err := r.db.Where("old_path = ?", oldPath).First(&redirect).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &redirect, nil
}

// List returns a redirect page, newest first.
func (r *GormRedirectRepository) List(page, pageSize int) ([]models.Redirect, int64, error) {
	query := r.db.Model(&models.Redirect{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var redirects []models.Redirect
	query = applyPagination(query, page, pageSize)
	if err := query.Order("id desc").Find(&redirects).Error; err != nil {
		return nil, 0, err
	}
	return redirects, total, nil
}

// Upsert writes a redirect, replacing the target when the old path is
// already mapped. Re-pointing an existing row keeps redirect chains flat.
func (r *GormRedirectRepository) Upsert(redirect *models.Redirect) error {
	if redirect == nil {
		return nil
	}
	var existing models.Redirect
	err := r.db.Where("old_path = ?", redirect.OldPath).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(redirect).Error
	}
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"new_path":     redirect.NewPath,
		"is_permanent": redirect.IsPermanent,
	}
	if err := r.db.Model(&existing).Updates(updates).Error; err != nil {
		return err
	}
	redirect.ID = existing.ID
	return nil
}

// Delete removes a redirect.
func (r *GormRedirectRepository) Delete(id uint) error {
	return r.db.Delete(&models.Redirect{}, id).Error
}
