package repository

import (
	"errors"

	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/utils"
)

// ErrOptimisticLock is returned when a version-checked update matched no row,
// meaning another writer committed first. Callers must retry the whole
// operation against fresh state.
var ErrOptimisticLock = errors.New("row version conflict")

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	// Create creates a new company
	Create(company *models.Company) error

	// FindByID finds a company by ID, including trashed ones
	FindByID(id string) (*models.Company, error)

	// FindActiveByID finds a non-trashed company by ID
	FindActiveByID(id string) (*models.Company, error)

	// Update persists changes with an optimistic version check
	Update(company *models.Company) error

	// DeleteByID removes the company row entirely
	DeleteByID(id string) error
}

// LocationRepository defines the interface for location data access
type LocationRepository interface {
	// Create creates a new location
	Create(location *models.Location) error

	// FindByID finds a location by ID, including trashed ones
	FindByID(id string) (*models.Location, error)

	// FindActiveByID finds a non-trashed location by ID
	FindActiveByID(id string) (*models.Location, error)

	// FindActiveByIDAndCompany finds a non-trashed location owned by the company
	FindActiveByIDAndCompany(id, companyID string) (*models.Location, error)

	// ListByCompany lists all locations of a company in creation order
	ListByCompany(companyID string) ([]models.Location, error)

	// ListActiveByCompany lists non-trashed locations with an optional status
	// filter and pagination, returning the total count
	ListActiveByCompany(companyID string, status *models.LocationStatus, params utils.PaginationParams) ([]models.Location, int64, error)

	// CountOpenActive counts OPEN, non-trashed locations of a company
	CountOpenActive(companyID string) (int64, error)

	// Update persists changes with an optimistic version check
	Update(location *models.Location) error

	// DeleteAllByCompany removes every location row of a company
	DeleteAllByCompany(companyID string) error
}

// TombstoneRepository defines the interface for deletion workflow records
type TombstoneRepository interface {
	// Create creates a new tombstone
	Create(tombstone *models.DeletionTombstone) error

	// FindByCompanyID finds the tombstone tracking a company's deletion
	FindByCompanyID(companyID string) (*models.DeletionTombstone, error)

	// ExistsInProgress reports whether an IN_PROGRESS tombstone exists for
	// the company. This backs the deletion visibility gate.
	ExistsInProgress(companyID string) (bool, error)

	// Update persists tombstone state changes
	Update(tombstone *models.DeletionTombstone) error
}

// AckRepository defines the interface for deletion acknowledgements
type AckRepository interface {
	// Find looks up one acknowledgement by its composite key
	Find(deletionID, serviceName string) (*models.DeletionAck, error)

	// Create records an acknowledgement
	Create(ack *models.DeletionAck) error

	// ListServiceNames returns the service names that acked a deletion
	ListServiceNames(deletionID string) ([]string, error)
}

// BootstrapRepository defines the interface for bootstrap idempotency records
type BootstrapRepository interface {
	// FindByKey looks up a record by idempotency key
	FindByKey(key string) (*models.BootstrapIdempotency, error)

	// Create persists a record; a duplicate key surfaces gorm.ErrDuplicatedKey
	Create(record *models.BootstrapIdempotency) error
}
