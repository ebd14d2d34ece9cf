package repository

import (
	"product-checker-backend/internal/models"

	"gorm.io/gorm"
)

type PlatformRepository struct {
	db *gorm.DB
}

func NewPlatformRepository(db *gorm.DB) *PlatformRepository {
	return &PlatformRepository{db: db}
}

// GetAll loads the platform/domain catalog.
func (r *PlatformRepository) GetAll() ([]models.Platform, error) {
	var platforms []models.Platform
	err := r.db.Find(&platforms).Error
	return platforms, err
}
