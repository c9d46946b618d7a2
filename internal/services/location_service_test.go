package services

import (
	"context"
	"testing"
	"time"

	"github.com/innologic/company-service/internal/models"
	"github.com/stretchr/testify/require"
)

func TestUpdateLocation_NormalizesCodes(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, main := createTestCompany(t, companySvc, "Acme")

	updated, err := svc.UpdateLocation(context.Background(), company.CompanyID, main.LocationID, UpdateLocationInput{
		Name:        "Headquarters",
		Timezone:    "Europe/Berlin",
		CountryCode: " de ",
		RegionCode:  " be ",
		ModifiedBy:  "editor",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CountryCode)
	require.Equal(t, "DE", *updated.CountryCode)
	require.NotNil(t, updated.RegionCode)
	require.Equal(t, "BE", *updated.RegionCode)

	// Blank codes clear the stored values
	cleared, err := svc.UpdateLocation(context.Background(), company.CompanyID, main.LocationID, UpdateLocationInput{
		Name:       "Headquarters",
		ModifiedBy: "editor",
	})
	require.NoError(t, err)
	require.Nil(t, cleared.CountryCode)
	require.Nil(t, cleared.RegionCode)
}

func TestUpdateLocation_RejectsBadCodes(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, main := createTestCompany(t, companySvc, "Acme")

	_, err := svc.UpdateLocation(context.Background(), company.CompanyID, main.LocationID, UpdateLocationInput{
		Name:        "Headquarters",
		CountryCode: "DEU",
		ModifiedBy:  "editor",
	})
	require.ErrorIs(t, err, ErrInvalidCountryCode)

	_, err = svc.UpdateLocation(context.Background(), company.CompanyID, main.LocationID, UpdateLocationInput{
		Name:       "Headquarters",
		RegionCode: "THIS-REGION-CODE-IS-FAR-TOO-LONG-TO-STORE",
		ModifiedBy: "editor",
	})
	require.ErrorIs(t, err, ErrInvalidRegionCode)
}

func TestUpdateLocation_TenantMismatch(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	_, main := createTestCompany(t, companySvc, "Acme")
	other, _ := createTestCompany(t, companySvc, "Other")

	_, err := svc.UpdateLocation(context.Background(), other.CompanyID, main.LocationID, UpdateLocationInput{
		Name:       "Hijacked",
		ModifiedBy: "editor",
	})
	require.ErrorIs(t, err, ErrTenantMismatch)
}

func TestCloseLocation(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, _ := createTestCompany(t, companySvc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	closed, err := svc.CloseLocation(context.Background(), company.CompanyID, branch.LocationID, "manager", "seasonal")
	require.NoError(t, err)
	require.Equal(t, models.LocationStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.ClosedReason)
	require.Equal(t, "seasonal", *closed.ClosedReason)

	// Closing again is a no-op
	again, err := svc.CloseLocation(context.Background(), company.CompanyID, branch.LocationID, "manager", "again")
	require.NoError(t, err)
	require.Equal(t, models.LocationStatusClosed, again.Status)
	require.Equal(t, "seasonal", *again.ClosedReason)
}

func TestCloseLocation_RejectsMain(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, main := createTestCompany(t, companySvc, "Acme")
	addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	_, err := svc.CloseLocation(context.Background(), company.CompanyID, main.LocationID, "manager", "")
	require.ErrorIs(t, err, ErrCannotCloseMainLocation)
}

func TestCloseLocation_RejectsLastOpen(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, main := createTestCompany(t, companySvc, "Acme")

	_, err := svc.CloseLocation(context.Background(), company.CompanyID, main.LocationID, "manager", "")
	require.ErrorIs(t, err, ErrLastOpenLocationRequired)
}

func TestReopenLocation(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, _ := createTestCompany(t, companySvc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusClosed)

	reopened, err := svc.ReopenLocation(context.Background(), company.CompanyID, branch.LocationID, "manager")
	require.NoError(t, err)
	require.Equal(t, models.LocationStatusOpen, reopened.Status)
	require.Nil(t, reopened.ClosedAt)
	require.Nil(t, reopened.ClosedReason)
}

func TestTrashLocation(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, _ := createTestCompany(t, companySvc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	trashed, err := svc.TrashLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.NoError(t, err)
	require.True(t, trashed.Trashed())
	require.NotNil(t, trashed.TrashedCause)
	require.Equal(t, models.TrashedCauseManual, *trashed.TrashedCause)
}

func TestTrashLocation_RejectsMain(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, main := createTestCompany(t, companySvc, "Acme")
	addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	_, err := svc.TrashLocation(context.Background(), company.CompanyID, main.LocationID, "admin")
	require.ErrorIs(t, err, ErrCannotTrashMainLocation)
}

func TestTrashLocation_ClosedTargetAllowed(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, _ := createTestCompany(t, companySvc, "Acme")
	closed := addTestLocation(t, db, company.CompanyID, "Closed Branch", models.LocationStatusClosed)

	// The last-open rule guards the OPEN count, so a CLOSED location can be
	// trashed even when the company has just one OPEN location left.
	trashed, err := svc.TrashLocation(context.Background(), company.CompanyID, closed.LocationID, "admin")
	require.NoError(t, err)
	require.True(t, trashed.Trashed())
}

func TestRestoreLocation(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, _ := createTestCompany(t, companySvc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	_, err := svc.TrashLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.NoError(t, err)

	restored, err := svc.RestoreLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.NoError(t, err)
	require.False(t, restored.Trashed())
	require.Nil(t, restored.TrashedCause)

	// Restoring an active location changes nothing
	again, err := svc.RestoreLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.NoError(t, err)
	require.False(t, again.Trashed())
	require.Equal(t, restored.Version, again.Version)
}

func TestRestoreLocation_FailsWhenMainInvalid(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, main := createTestCompany(t, companySvc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	_, err := svc.TrashLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.NoError(t, err)

	// Knock out the main location behind the service layer so the company
	// no longer resolves a valid main.
	now := time.Now().UTC()
	require.NoError(t, db.Model(&models.Location{}).
		Where("location_id = ?", main.LocationID).
		Updates(map[string]interface{}{
			"trashed_at":    now,
			"trashed_by":    "admin",
			"trashed_cause": models.TrashedCauseManual,
		}).Error)

	_, err = svc.RestoreLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.ErrorIs(t, err, ErrMainLocationRequired)

	// The failed restore rolls back: the branch stays trashed
	var reloaded models.Location
	require.NoError(t, db.First(&reloaded, "location_id = ?", branch.LocationID).Error)
	require.True(t, reloaded.Trashed())
}

func TestRestoreLocation_NoOpPathRevalidatesMain(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, main := createTestCompany(t, companySvc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	now := time.Now().UTC()
	require.NoError(t, db.Model(&models.Location{}).
		Where("location_id = ?", main.LocationID).
		Updates(map[string]interface{}{
			"trashed_at":    now,
			"trashed_by":    "admin",
			"trashed_cause": models.TrashedCauseManual,
		}).Error)

	// Restoring an already-active location is a no-op, but it still refuses
	// to report success while the company's main location is broken.
	_, err := svc.RestoreLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.ErrorIs(t, err, ErrMainLocationRequired)
}

func TestRestoreLocation_RequiresActiveCompany(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, _ := createTestCompany(t, companySvc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	_, err := svc.TrashLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.NoError(t, err)

	_, err = companySvc.TrashCompany(context.Background(), company.CompanyID, "admin")
	require.NoError(t, err)

	_, err = svc.RestoreLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.ErrorIs(t, err, ErrCompanyTrashed)
}

func TestGetActiveLocationForCompany(t *testing.T) {
	db := setupServiceTestDB(t)
	companySvc := NewCompanyService(db, nil)
	svc := NewLocationService(db, nil)

	company, main := createTestCompany(t, companySvc, "Acme")

	found, err := svc.GetActiveLocationForCompany(main.LocationID, company.CompanyID)
	require.NoError(t, err)
	require.Equal(t, main.LocationID, found.LocationID)

	other, _ := createTestCompany(t, companySvc, "Other")
	_, err = svc.GetActiveLocationForCompany(main.LocationID, other.CompanyID)
	require.ErrorIs(t, err, ErrLocationNotFound)

	// The unscoped lookup still hides trashed rows
	found, err = svc.GetActiveLocation(main.LocationID)
	require.NoError(t, err)
	require.Equal(t, company.CompanyID, found.CompanyID)

	_, err = svc.GetActiveLocation("no-such-location")
	require.ErrorIs(t, err, ErrLocationNotFound)
}
