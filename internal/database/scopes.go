package database

import (
	"gorm.io/gorm"

	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// NotTrashed narrows a query to rows without a soft-delete marker
func NotTrashed(db *gorm.DB) *gorm.DB {
	return db.Where("trashed_at IS NULL")
}

// LocationStatus filters locations by status when a filter is given
func LocationStatus(status *models.LocationStatus) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == nil {
			return db
		}
		return db.Where("status = ?", *status)
	}
}
