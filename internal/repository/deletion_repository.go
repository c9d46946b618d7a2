package repository

import (
	"github.com/innologic/company-service/internal/models"
	"gorm.io/gorm"
)

// GormTombstoneRepository is a GORM implementation of TombstoneRepository
type GormTombstoneRepository struct {
	db *gorm.DB
}

// NewTombstoneRepository creates a new TombstoneRepository
func NewTombstoneRepository(db *gorm.DB) TombstoneRepository {
	return &GormTombstoneRepository{db: db}
}

// Create creates a new tombstone
func (r *GormTombstoneRepository) Create(tombstone *models.DeletionTombstone) error {
	return r.db.Create(tombstone).Error
}

// FindByCompanyID finds the tombstone tracking a company's deletion
func (r *GormTombstoneRepository) FindByCompanyID(companyID string) (*models.DeletionTombstone, error) {
	var tombstone models.DeletionTombstone
	if err := r.db.Where("company_id = ?", companyID).First(&tombstone).Error; err != nil {
		return nil, err
	}
	return &tombstone, nil
}

// ExistsInProgress reports whether an IN_PROGRESS tombstone exists for the company
func (r *GormTombstoneRepository) ExistsInProgress(companyID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.DeletionTombstone{}).
		Where("company_id = ? AND state = ?", companyID, models.DeletionStateInProgress).
		Count(&count).Error
	return count > 0, err
}

// Update persists tombstone state changes
func (r *GormTombstoneRepository) Update(tombstone *models.DeletionTombstone) error {
	return r.db.Save(tombstone).Error
}

// GormAckRepository is a GORM implementation of AckRepository
type GormAckRepository struct {
	db *gorm.DB
}

// NewAckRepository creates a new AckRepository
func NewAckRepository(db *gorm.DB) AckRepository {
	return &GormAckRepository{db: db}
}

// Find looks up one acknowledgement by its composite key
func (r *GormAckRepository) Find(deletionID, serviceName string) (*models.DeletionAck, error) {
	var ack models.DeletionAck
	if err := r.db.
		Where("deletion_id = ? AND service_name = ?", deletionID, serviceName).
		First(&ack).Error; err != nil {
		return nil, err
	}
	return &ack, nil
}

// Create records an acknowledgement
func (r *GormAckRepository) Create(ack *models.DeletionAck) error {
	return r.db.Create(ack).Error
}

// ListServiceNames returns the service names that acked a deletion
func (r *GormAckRepository) ListServiceNames(deletionID string) ([]string, error) {
	var names []string
	err := r.db.Model(&models.DeletionAck{}).
		Where("deletion_id = ?", deletionID).
		Pluck("service_name", &names).Error
	return names, err
}
