package repository

import (
	"github.com/innologic/company-service/internal/database"
	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/utils"
	"gorm.io/gorm"
)

// GormLocationRepository is a GORM implementation of LocationRepository
type GormLocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &GormLocationRepository{db: db}
}

// Create creates a new location
func (r *GormLocationRepository) Create(location *models.Location) error {
	return r.db.Create(location).Error
}

// FindByID finds a location by ID, including trashed ones
func (r *GormLocationRepository) FindByID(id string) (*models.Location, error) {
	var location models.Location
	if err := r.db.Where("location_id = ?", id).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// FindActiveByID finds a non-trashed location by ID
func (r *GormLocationRepository) FindActiveByID(id string) (*models.Location, error) {
	var location models.Location
	if err := r.db.Where("location_id = ? AND trashed_at IS NULL", id).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// FindActiveByIDAndCompany finds a non-trashed location owned by the company
func (r *GormLocationRepository) FindActiveByIDAndCompany(id, companyID string) (*models.Location, error) {
	var location models.Location
	if err := r.db.
		Where("location_id = ? AND company_id = ? AND trashed_at IS NULL", id, companyID).
		First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// ListByCompany lists all locations of a company in creation order. Creation
// order keeps main-location re-election deterministic.
func (r *GormLocationRepository) ListByCompany(companyID string) ([]models.Location, error) {
	var locations []models.Location
	if err := r.db.
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// ListActiveByCompany lists non-trashed locations with an optional status
// filter and pagination, returning the total count
func (r *GormLocationRepository) ListActiveByCompany(companyID string, status *models.LocationStatus, params utils.PaginationParams) ([]models.Location, int64, error) {
	query := r.db.Model(&models.Location{}).
		Where("company_id = ?", companyID).
		Scopes(database.NotTrashed, database.LocationStatus(status))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var locations []models.Location
	if err := query.
		Order("created_at ASC").
		Scopes(database.Paginate(params)).
		Find(&locations).Error; err != nil {
		return nil, 0, err
	}
	return locations, total, nil
}

// CountOpenActive counts OPEN, non-trashed locations of a company
func (r *GormLocationRepository) CountOpenActive(companyID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Location{}).
		Where("company_id = ? AND status = ?", companyID, models.LocationStatusOpen).
		Scopes(database.NotTrashed).
		Count(&count).Error
	return count, err
}

// Update persists changes with an optimistic version check
func (r *GormLocationRepository) Update(location *models.Location) error {
	previous := location.Version
	location.Version = previous + 1

	result := r.db.Model(&models.Location{}).
		Where("location_id = ? AND version = ?", location.LocationID, previous).
		Select("*").
		Omit("created_at", "created_by").
		Updates(location)
	if result.Error != nil {
		location.Version = previous
		return result.Error
	}
	if result.RowsAffected == 0 {
		location.Version = previous
		return ErrOptimisticLock
	}
	return nil
}

// DeleteAllByCompany removes every location row of a company
func (r *GormLocationRepository) DeleteAllByCompany(companyID string) error {
	return r.db.Where("company_id = ?", companyID).Delete(&models.Location{}).Error
}
