package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/innologic/company-service/internal/cache"
	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/repository"
	"gorm.io/gorm"
)

var countryCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

// LocationService provides business logic for location operations. All
// commands are tenant scoped: the externally resolved company id must match
// the location's owner.
type LocationService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewLocationService creates a new LocationService.
func NewLocationService(db *gorm.DB, c *cache.Cache) *LocationService {
	return &LocationService{db: db, cache: c}
}

// UpdateLocationInput represents parameters to update location attributes.
type UpdateLocationInput struct {
	Name         string
	LocationCode string
	Timezone     string
	CountryCode  string
	RegionCode   string
	ModifiedBy   string
}

// GetActiveLocation returns a visible, non-trashed location.
func (s *LocationService) GetActiveLocation(locationID string) (*models.Location, error) {
	location, err := repository.NewLocationRepository(s.db).FindActiveByID(locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	if err := assertCompanyAccessible(s.db, location.CompanyID); err != nil {
		return nil, ErrLocationNotFound
	}
	return location, nil
}

// GetActiveLocationForCompany returns a visible, non-trashed location owned
// by the given company.
func (s *LocationService) GetActiveLocationForCompany(locationID, companyID string) (*models.Location, error) {
	location, err := repository.NewLocationRepository(s.db).FindActiveByIDAndCompany(locationID, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	if err := assertCompanyAccessible(s.db, companyID); err != nil {
		return nil, ErrLocationNotFound
	}
	return location, nil
}

// UpdateLocation updates location attributes after re-validating the owning
// company's main-location invariant.
func (s *LocationService) UpdateLocation(ctx context.Context, tenantID, locationID string, input UpdateLocationInput) (*models.Location, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrLocationNameRequired
	}
	countryCode, err := normalizeCountryCode(input.CountryCode)
	if err != nil {
		return nil, err
	}
	regionCode, err := normalizeRegionCode(input.RegionCode)
	if err != nil {
		return nil, err
	}

	var location *models.Location
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		location, err = getActiveLocationForTenant(tx, tenantID, locationID)
		if err != nil {
			return err
		}
		company, err := getActiveCompany(tx, location.CompanyID)
		if err != nil {
			return err
		}
		if err := ensureMainLocationValid(tx, company); err != nil {
			return err
		}

		location.Name = input.Name
		location.LocationCode = input.LocationCode
		location.Timezone = input.Timezone
		location.CountryCode = countryCode
		location.RegionCode = regionCode
		location.ModifiedAt = time.Now().UTC()
		location.ModifiedBy = input.ModifiedBy
		return repository.NewLocationRepository(tx).Update(location)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, location.CompanyID)
	return location, nil
}

// CloseLocation closes a location. The main location can never be closed,
// and an OPEN location cannot be closed when it is the company's last OPEN
// one. Closing an already CLOSED location is a no-op.
func (s *LocationService) CloseLocation(ctx context.Context, tenantID, locationID, closedBy, reason string) (*models.Location, error) {
	var location *models.Location
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		location, err = getActiveLocationForTenant(tx, tenantID, locationID)
		if err != nil {
			return err
		}
		company, err := getActiveCompany(tx, location.CompanyID)
		if err != nil {
			return err
		}
		if err := ensureMainLocationValid(tx, company); err != nil {
			return err
		}

		// The last-open rule only applies when the target is currently OPEN:
		// closing a CLOSED location cannot reduce the open count.
		if location.Status == models.LocationStatusOpen {
			open, err := repository.NewLocationRepository(tx).CountOpenActive(company.CompanyID)
			if err != nil {
				return err
			}
			if open <= 1 {
				return ErrLastOpenLocationRequired
			}
		}
		if locationID == company.MainLocationID {
			return ErrCannotCloseMainLocation
		}
		if location.Status == models.LocationStatusClosed {
			return nil
		}

		now := time.Now().UTC()
		location.Status = models.LocationStatusClosed
		location.ClosedAt = &now
		location.ClosedBy = &closedBy
		location.ClosedReason = &reason
		location.ModifiedAt = now
		location.ModifiedBy = closedBy
		return repository.NewLocationRepository(tx).Update(location)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, location.CompanyID)
	return location, nil
}

// ReopenLocation sets a location back to OPEN and clears its close metadata.
// Reopening cannot violate any invariant, so it is unconditionally legal.
func (s *LocationService) ReopenLocation(ctx context.Context, tenantID, locationID, reopenedBy string) (*models.Location, error) {
	var location *models.Location
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		location, err = getActiveLocationForTenant(tx, tenantID, locationID)
		if err != nil {
			return err
		}
		company, err := getActiveCompany(tx, location.CompanyID)
		if err != nil {
			return err
		}
		if err := ensureMainLocationValid(tx, company); err != nil {
			return err
		}

		location.Status = models.LocationStatusOpen
		location.ClosedAt = nil
		location.ClosedBy = nil
		location.ClosedReason = nil
		location.ModifiedAt = time.Now().UTC()
		location.ModifiedBy = reopenedBy
		return repository.NewLocationRepository(tx).Update(location)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, location.CompanyID)
	return location, nil
}

// TrashLocation soft-deletes a location with cause MANUAL. The main location
// can never be trashed, and an OPEN location cannot be trashed when it is the
// company's last OPEN one.
func (s *LocationService) TrashLocation(ctx context.Context, tenantID, locationID, trashedBy string) (*models.Location, error) {
	var location *models.Location
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		location, err = getActiveLocationForTenant(tx, tenantID, locationID)
		if err != nil {
			return err
		}
		company, err := getActiveCompany(tx, location.CompanyID)
		if err != nil {
			return err
		}
		if err := ensureMainLocationValid(tx, company); err != nil {
			return err
		}

		if locationID == company.MainLocationID {
			return ErrCannotTrashMainLocation
		}
		if location.Status == models.LocationStatusOpen {
			open, err := repository.NewLocationRepository(tx).CountOpenActive(company.CompanyID)
			if err != nil {
				return err
			}
			if open <= 1 {
				return ErrLastOpenLocationRequired
			}
		}

		now := time.Now().UTC()
		manual := models.TrashedCauseManual
		location.TrashedAt = &now
		location.TrashedBy = &trashedBy
		location.TrashedCause = &manual
		location.ModifiedAt = now
		location.ModifiedBy = trashedBy
		return repository.NewLocationRepository(tx).Update(location)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, location.CompanyID)
	return location, nil
}

// RestoreLocation un-trashes a location, then re-validates the owning
// company's invariants. Restoring an already-active location is a no-op that
// still re-validates the main-location invariant.
func (s *LocationService) RestoreLocation(ctx context.Context, tenantID, locationID, restoredBy string) (*models.Location, error) {
	var location *models.Location
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		location, err = repository.NewLocationRepository(tx).FindByID(locationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLocationNotFound
			}
			return err
		}
		if tenantID != location.CompanyID {
			return ErrTenantMismatch
		}
		company, err := getActiveCompany(tx, location.CompanyID)
		if err != nil {
			return err
		}

		if !location.Trashed() {
			return ensureMainLocationValid(tx, company)
		}

		location.TrashedAt = nil
		location.TrashedBy = nil
		location.TrashedCause = nil
		location.ModifiedAt = time.Now().UTC()
		location.ModifiedBy = restoredBy
		if err := repository.NewLocationRepository(tx).Update(location); err != nil {
			return err
		}

		if err := ensureMainLocationValid(tx, company); err != nil {
			return err
		}
		return ensureAtLeastOneOpenLocation(tx, company.CompanyID)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, location.CompanyID)
	return location, nil
}

// getActiveLocationForTenant loads a non-trashed location and enforces the
// tenant cross-check plus the deletion visibility gate on its company.
func getActiveLocationForTenant(tx *gorm.DB, tenantID, locationID string) (*models.Location, error) {
	location, err := repository.NewLocationRepository(tx).FindActiveByID(locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	if tenantID != location.CompanyID {
		return nil, ErrTenantMismatch
	}
	if err := assertCompanyAccessible(tx, location.CompanyID); err != nil {
		return nil, err
	}
	return location, nil
}

func normalizeCountryCode(countryCode string) (*string, error) {
	trimmed := strings.TrimSpace(countryCode)
	if trimmed == "" {
		return nil, nil
	}
	if !countryCodePattern.MatchString(trimmed) {
		return nil, ErrInvalidCountryCode
	}
	upper := strings.ToUpper(trimmed)
	return &upper, nil
}

func normalizeRegionCode(regionCode string) (*string, error) {
	trimmed := strings.TrimSpace(regionCode)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > 32 {
		return nil, ErrInvalidRegionCode
	}
	upper := strings.ToUpper(trimmed)
	return &upper, nil
}
