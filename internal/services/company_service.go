package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/innologic/company-service/internal/cache"
	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/repository"
	"github.com/innologic/company-service/internal/utils"
	"gorm.io/gorm"
)

// errBootstrapRace signals that a concurrent identical create won the
// idempotency-record insert; the caller re-resolves outside the failed
// transaction.
var errBootstrapRace = errors.New("bootstrap idempotency record already exists")

// CompanyService provides business logic for company operations.
type CompanyService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(db *gorm.DB, c *cache.Cache) *CompanyService {
	return &CompanyService{db: db, cache: c}
}

// InitialLocationInput describes the single location a company starts with.
type InitialLocationInput struct {
	Name         string
	LocationCode string
	Timezone     string
}

// CreateCompanyInput represents parameters to bootstrap a new company.
type CreateCompanyInput struct {
	Name            string
	DisplayName     string
	Timezone        string
	Locale          string
	InitialLocation InitialLocationInput
	CreatedBy       string
	IdempotencyKey  string
}

// UpdateCompanyInput represents parameters to update company display attributes.
type UpdateCompanyInput struct {
	Name        string
	DisplayName string
	Timezone    string
	Locale      string
	ModifiedBy  string
}

// CreateCompany creates a company together with exactly one OPEN initial
// location that becomes its main location, all in one transaction. A supplied
// idempotency key makes the call retry-safe: the same key with the same
// payload returns the company created first, the same key with a different
// payload is a conflict.
func (s *CompanyService) CreateCompany(ctx context.Context, input CreateCompanyInput) (*models.Company, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrCompanyNameRequired
	}
	if strings.TrimSpace(input.InitialLocation.Name) == "" {
		return nil, ErrLocationNameRequired
	}

	normalizedKey := strings.TrimSpace(input.IdempotencyKey)
	var requestHash string
	if normalizedKey != "" {
		requestHash = bootstrapRequestHash(input)
	}

	var company *models.Company
	err := s.db.Transaction(func(tx *gorm.DB) error {
		bootstraps := repository.NewBootstrapRepository(tx)

		if normalizedKey != "" {
			existing, err := bootstraps.FindByKey(normalizedKey)
			if err == nil {
				resolved, rerr := resolveExistingBootstrap(tx, existing, requestHash)
				if rerr != nil {
					return rerr
				}
				company = resolved
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		now := time.Now().UTC()
		companyID := uuid.NewString()
		locationID := uuid.NewString()

		created := &models.Company{
			CompanyID:      companyID,
			Name:           input.Name,
			DisplayName:    input.DisplayName,
			Timezone:       input.Timezone,
			Locale:         input.Locale,
			MainLocationID: locationID,
			CreatedAt:      now,
			CreatedBy:      input.CreatedBy,
			ModifiedAt:     now,
			ModifiedBy:     input.CreatedBy,
		}
		location := &models.Location{
			LocationID:   locationID,
			CompanyID:    companyID,
			Name:         input.InitialLocation.Name,
			LocationCode: input.InitialLocation.LocationCode,
			Timezone:     input.InitialLocation.Timezone,
			Status:       models.LocationStatusOpen,
			CreatedAt:    now,
			CreatedBy:    input.CreatedBy,
			ModifiedAt:   now,
			ModifiedBy:   input.CreatedBy,
		}

		if err := repository.NewCompanyRepository(tx).Create(created); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		if err := repository.NewLocationRepository(tx).Create(location); err != nil {
			return fmt.Errorf("failed to create initial location: %w", err)
		}

		if normalizedKey != "" {
			record := &models.BootstrapIdempotency{
				IdempotencyKey: normalizedKey,
				RequestHash:    requestHash,
				CompanyID:      companyID,
				CreatedAt:      now,
				CreatedBy:      input.CreatedBy,
			}
			if err := bootstraps.Create(record); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// Lost the race against a concurrent request with the
					// same key. Roll back and re-resolve from their result.
					return errBootstrapRace
				}
				return fmt.Errorf("failed to persist idempotency record: %w", err)
			}
		}

		company = created
		return nil
	})
	if errors.Is(err, errBootstrapRace) {
		existing, ferr := repository.NewBootstrapRepository(s.db).FindByKey(normalizedKey)
		if ferr != nil {
			return nil, fmt.Errorf("failed to re-resolve idempotency record: %w", ferr)
		}
		return resolveExistingBootstrap(s.db, existing, requestHash)
	}
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, company.CompanyID)
	return company, nil
}

func resolveExistingBootstrap(db *gorm.DB, existing *models.BootstrapIdempotency, requestHash string) (*models.Company, error) {
	if existing.RequestHash != requestHash {
		return nil, ErrIdempotencyKeyConflict
	}
	company, err := repository.NewCompanyRepository(db).FindByID(existing.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return company, nil
}

// bootstrapRequestHash computes the canonical digest pinning an idempotency
// key to one logical create request.
func bootstrapRequestHash(input CreateCompanyInput) string {
	canonical := strings.Join([]string{
		strings.TrimSpace(input.Name),
		strings.TrimSpace(input.DisplayName),
		strings.TrimSpace(input.Timezone),
		strings.TrimSpace(input.Locale),
		strings.TrimSpace(input.InitialLocation.Name),
		strings.TrimSpace(input.InitialLocation.LocationCode),
		strings.TrimSpace(input.InitialLocation.Timezone),
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// GetActiveCompany returns a visible, non-trashed company, read through the
// cache.
func (s *CompanyService) GetActiveCompany(ctx context.Context, companyID string) (*models.Company, error) {
	if company, ok := s.cache.GetCompany(ctx, companyID); ok {
		return company, nil
	}

	if err := assertCompanyAccessible(s.db, companyID); err != nil {
		return nil, err
	}
	company, err := repository.NewCompanyRepository(s.db).FindActiveByID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to find company: %w", err)
	}

	s.cache.SetCompany(ctx, company)
	return company, nil
}

// ListActiveLocations lists the company's non-trashed locations, optionally
// filtered by status, read through the cache.
func (s *CompanyService) ListActiveLocations(ctx context.Context, companyID string, status *models.LocationStatus, params utils.PaginationParams) ([]models.Location, int64, error) {
	statusKey := ""
	if status != nil {
		statusKey = string(*status)
	}
	key := cache.LocationsKey(companyID, statusKey, params.Page, params.Limit)
	if page, ok := s.cache.GetLocationPage(ctx, key); ok {
		return page.Locations, page.Total, nil
	}

	if _, err := s.GetActiveCompany(ctx, companyID); err != nil {
		return nil, 0, err
	}

	locations, total, err := repository.NewLocationRepository(s.db).ListActiveByCompany(companyID, status, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list locations: %w", err)
	}

	s.cache.SetLocationPage(ctx, key, &cache.LocationPage{Locations: locations, Total: total})
	return locations, total, nil
}

// UpdateCompany updates display attributes and re-validates the main-location
// invariant before committing.
func (s *CompanyService) UpdateCompany(ctx context.Context, companyID string, input UpdateCompanyInput) (*models.Company, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrCompanyNameRequired
	}

	var company *models.Company
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		company, err = getActiveCompany(tx, companyID)
		if err != nil {
			return err
		}

		company.Name = input.Name
		company.DisplayName = input.DisplayName
		company.Timezone = input.Timezone
		company.Locale = input.Locale
		company.ModifiedAt = time.Now().UTC()
		company.ModifiedBy = input.ModifiedBy

		if err := ensureMainLocationValid(tx, company); err != nil {
			return err
		}
		return repository.NewCompanyRepository(tx).Update(company)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, companyID)
	return company, nil
}

// UpdateLogo sets the company's logo file reference.
func (s *CompanyService) UpdateLogo(ctx context.Context, companyID, logoFileRef, modifiedBy string) (*models.Company, error) {
	return s.updateLogoRef(ctx, companyID, &logoFileRef, modifiedBy)
}

// RemoveLogo clears the company's logo file reference.
func (s *CompanyService) RemoveLogo(ctx context.Context, companyID, modifiedBy string) (*models.Company, error) {
	return s.updateLogoRef(ctx, companyID, nil, modifiedBy)
}

func (s *CompanyService) updateLogoRef(ctx context.Context, companyID string, logoFileRef *string, modifiedBy string) (*models.Company, error) {
	var company *models.Company
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		company, err = getActiveCompany(tx, companyID)
		if err != nil {
			return err
		}
		company.LogoFileRef = logoFileRef
		company.ModifiedAt = time.Now().UTC()
		company.ModifiedBy = modifiedBy
		return repository.NewCompanyRepository(tx).Update(company)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, companyID)
	return company, nil
}

// SetMainLocation designates a new main location. The target must belong to
// the company, not be trashed, and be OPEN.
func (s *CompanyService) SetMainLocation(ctx context.Context, companyID, locationID, modifiedBy string) (*models.Company, error) {
	var company *models.Company
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		company, err = getActiveCompany(tx, companyID)
		if err != nil {
			return err
		}

		location, err := repository.NewLocationRepository(tx).FindActiveByIDAndCompany(locationID, companyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLocationNotInCompany
			}
			return err
		}
		if location.Status != models.LocationStatusOpen {
			return ErrMainLocationMustBeOpen
		}

		company.MainLocationID = locationID
		company.ModifiedAt = time.Now().UTC()
		company.ModifiedBy = modifiedBy

		if err := repository.NewCompanyRepository(tx).Update(company); err != nil {
			return err
		}
		return ensureMainLocationValid(tx, company)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, companyID)
	return company, nil
}

// TrashCompany soft-deletes the company and cascades the trash marker to
// every non-trashed location with cause CASCADE, atomically. No partial
// cascade state is ever observable.
func (s *CompanyService) TrashCompany(ctx context.Context, companyID, trashedBy string) (*models.Company, error) {
	var company *models.Company
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		company, err = getActiveCompany(tx, companyID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		company.TrashedAt = &now
		company.TrashedBy = &trashedBy
		company.ModifiedAt = now
		company.ModifiedBy = trashedBy
		if err := repository.NewCompanyRepository(tx).Update(company); err != nil {
			return err
		}

		locationRepo := repository.NewLocationRepository(tx)
		locations, err := locationRepo.ListByCompany(companyID)
		if err != nil {
			return err
		}
		cascade := models.TrashedCauseCascade
		for i := range locations {
			if locations[i].Trashed() {
				continue
			}
			locations[i].TrashedAt = &now
			locations[i].TrashedBy = &trashedBy
			locations[i].TrashedCause = &cascade
			locations[i].ModifiedAt = now
			locations[i].ModifiedBy = trashedBy
			if err := locationRepo.Update(&locations[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, companyID)
	return company, nil
}

// RestoreCompany clears the company's trash marker and un-trashes exactly the
// locations that were cascade-trashed; manually trashed locations stay
// trashed. If the previous main location is no longer valid, the first
// remaining OPEN, non-trashed location in creation order becomes main.
func (s *CompanyService) RestoreCompany(ctx context.Context, companyID, restoredBy string) (*models.Company, error) {
	var company *models.Company
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := assertCompanyAccessible(tx, companyID); err != nil {
			return err
		}

		companyRepo := repository.NewCompanyRepository(tx)
		found, err := companyRepo.FindByID(companyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompanyNotFound
			}
			return err
		}
		company = found

		now := time.Now().UTC()
		company.TrashedAt = nil
		company.TrashedBy = nil
		company.ModifiedAt = now
		company.ModifiedBy = restoredBy
		if err := companyRepo.Update(company); err != nil {
			return err
		}

		locationRepo := repository.NewLocationRepository(tx)
		locations, err := locationRepo.ListByCompany(companyID)
		if err != nil {
			return err
		}
		if len(locations) == 0 {
			return ErrLastOpenLocationRequired
		}

		for i := range locations {
			loc := &locations[i]
			if loc.Trashed() && loc.TrashedCause != nil && *loc.TrashedCause == models.TrashedCauseCascade {
				loc.TrashedAt = nil
				loc.TrashedBy = nil
				loc.TrashedCause = nil
				loc.ModifiedAt = now
				loc.ModifiedBy = restoredBy
				if err := locationRepo.Update(loc); err != nil {
					return err
				}
			}
		}

		if err := ensureAtLeastOneOpenLocation(tx, companyID); err != nil {
			return err
		}

		valid, err := isMainLocationValid(tx, company)
		if err != nil {
			return err
		}
		if !valid {
			replacement := firstOpenActive(locations)
			if replacement == nil {
				return ErrLastOpenLocationRequired
			}
			company.MainLocationID = replacement.LocationID
			if err := companyRepo.Update(company); err != nil {
				return err
			}
		}
		return ensureMainLocationValid(tx, company)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateCompany(ctx, companyID)
	return company, nil
}

// firstOpenActive picks the deterministic main-location replacement:
// locations arrive in creation order.
func firstOpenActive(locations []models.Location) *models.Location {
	for i := range locations {
		if locations[i].OpenAndActive() {
			return &locations[i]
		}
	}
	return nil
}

// CountOpenLocations reports the company's OPEN, non-trashed location count.
func (s *CompanyService) CountOpenLocations(companyID string) (int64, error) {
	return repository.NewLocationRepository(s.db).CountOpenActive(companyID)
}
