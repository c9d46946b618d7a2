package repository

import (
	"github.com/innologic/company-service/internal/models"
	"gorm.io/gorm"
)

// GormCompanyRepository is a GORM implementation of CompanyRepository
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Create creates a new company
func (r *GormCompanyRepository) Create(company *models.Company) error {
	return r.db.Create(company).Error
}

// FindByID finds a company by ID, including trashed ones
func (r *GormCompanyRepository) FindByID(id string) (*models.Company, error) {
	var company models.Company
	if err := r.db.Where("company_id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// FindActiveByID finds a non-trashed company by ID
func (r *GormCompanyRepository) FindActiveByID(id string) (*models.Company, error) {
	var company models.Company
	if err := r.db.Where("company_id = ? AND trashed_at IS NULL", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// Update persists changes with an optimistic version check. The WHERE clause
// pins the version read at load time; zero affected rows means a concurrent
// writer won.
func (r *GormCompanyRepository) Update(company *models.Company) error {
	previous := company.Version
	company.Version = previous + 1

	result := r.db.Model(&models.Company{}).
		Where("company_id = ? AND version = ?", company.CompanyID, previous).
		Select("*").
		Omit("created_at", "created_by").
		Updates(company)
	if result.Error != nil {
		company.Version = previous
		return result.Error
	}
	if result.RowsAffected == 0 {
		company.Version = previous
		return ErrOptimisticLock
	}
	return nil
}

// DeleteByID removes the company row entirely
func (r *GormCompanyRepository) DeleteByID(id string) error {
	return r.db.Where("company_id = ?", id).Delete(&models.Company{}).Error
}
