package services

import (
	"errors"

	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/repository"
	"gorm.io/gorm"
)

// assertCompanyAccessible enforces the deletion visibility gate: a company
// with an IN_PROGRESS tombstone is not found, for every command and query
// path alike.
func assertCompanyAccessible(tx *gorm.DB, companyID string) error {
	inProgress, err := repository.NewTombstoneRepository(tx).ExistsInProgress(companyID)
	if err != nil {
		return err
	}
	if inProgress {
		return ErrCompanyNotFound
	}
	return nil
}

// getActiveCompany loads a company that is visible (not mid-deletion) and not
// trashed. Mutating operations on companies start here.
func getActiveCompany(tx *gorm.DB, companyID string) (*models.Company, error) {
	if err := assertCompanyAccessible(tx, companyID); err != nil {
		return nil, err
	}
	company, err := repository.NewCompanyRepository(tx).FindByID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	if company.Trashed() {
		return nil, ErrCompanyTrashed
	}
	return company, nil
}

// ensureMainLocationValid re-validates that the company's main location
// resolves to an owned, non-trashed, OPEN location. Every mutation that can
// disturb this runs the check inside its own transaction before committing.
func ensureMainLocationValid(tx *gorm.DB, company *models.Company) error {
	locations := repository.NewLocationRepository(tx)
	main, err := locations.FindActiveByIDAndCompany(company.MainLocationID, company.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMainLocationRequired
		}
		return err
	}
	if main.Status != models.LocationStatusOpen {
		return ErrMainLocationMustBeOpen
	}
	return nil
}

// isMainLocationValid is the non-failing variant used by restore to decide
// whether a new main location must be elected.
func isMainLocationValid(tx *gorm.DB, company *models.Company) (bool, error) {
	main, err := repository.NewLocationRepository(tx).FindActiveByIDAndCompany(company.MainLocationID, company.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return main.Status == models.LocationStatusOpen, nil
}

func ensureAtLeastOneOpenLocation(tx *gorm.DB, companyID string) error {
	open, err := repository.NewLocationRepository(tx).CountOpenActive(companyID)
	if err != nil {
		return err
	}
	if open <= 0 {
		return ErrLastOpenLocationRequired
	}
	return nil
}
