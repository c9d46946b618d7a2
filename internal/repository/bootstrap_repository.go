package repository

import (
	"github.com/innologic/company-service/internal/models"
	"gorm.io/gorm"
)

// GormBootstrapRepository is a GORM implementation of BootstrapRepository
type GormBootstrapRepository struct {
	db *gorm.DB
}

// NewBootstrapRepository creates a new BootstrapRepository
func NewBootstrapRepository(db *gorm.DB) BootstrapRepository {
	return &GormBootstrapRepository{db: db}
}

// FindByKey looks up a record by idempotency key
func (r *GormBootstrapRepository) FindByKey(key string) (*models.BootstrapIdempotency, error) {
	var record models.BootstrapIdempotency
	if err := r.db.Where("idempotency_key = ?", key).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Create persists a record; a duplicate key surfaces gorm.ErrDuplicatedKey
func (r *GormBootstrapRepository) Create(record *models.BootstrapIdempotency) error {
	return r.db.Create(record).Error
}
