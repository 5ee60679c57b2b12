package repository

import (
	"errors"
	"time"

	"github.com/sofahub/sofahub-api/internal/models"

	"gorm.io/gorm"
)

// StaffRepository is the back-office account data access interface.
type StaffRepository interface {
	GetByUsername(username string) (*models.Staff, error)
	GetByID(id uint) (*models.Staff, error)
	TouchLastLogin(id uint, at time.Time) error
	UpdatePasswordHash(id uint, hash string) error
}

// GormStaffRepository is the GORM implementation.
type GormStaffRepository struct {
	db *gorm.DB
}

// NewStaffRepository creates the staff repository.
func NewStaffRepository(db *gorm.DB) *GormStaffRepository {
	return &GormStaffRepository{db: db}
}

// GetByUsername returns a staff account, nil when absent.
func (r *GormStaffRepository) GetByUsername(username string) (*models.Staff, error) {
	var staff models.Staff
	err := r.db.Where("username = ?", username).First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

// GetByID returns a staff account, nil when absent.
func (r *GormStaffRepository) GetByID(id uint) (*models.Staff, error) {
	var staff models.Staff
	if err := r.db.First(&staff, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

// TouchLastLogin records a successful login.
func (r *GormStaffRepository) TouchLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.Staff{}).Where("id = ?", id).Update("last_login_at", at).Error
}

// UpdatePasswordHash replaces the stored password hash.
func (r *GormStaffRepository) UpdatePasswordHash(id uint, hash string) error {
	return r.db.Model(&models.Staff{}).Where("id = ?", id).Update("password_hash", hash).Error
}
