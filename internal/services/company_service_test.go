package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Company{},
		&models.Location{},
		&models.DeletionTombstone{},
		&models.DeletionAck{},
		&models.BootstrapIdempotency{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func testCreateInput(name string) CreateCompanyInput {
	return CreateCompanyInput{
		Name:        name,
		DisplayName: name + " Inc.",
		Timezone:    "Europe/Berlin",
		Locale:      "de-DE",
		InitialLocation: InitialLocationInput{
			Name:         "Headquarters",
			LocationCode: "HQ",
			Timezone:     "Europe/Berlin",
		},
		CreatedBy: "tester",
	}
}

// createTestCompany bootstraps a company and returns it with its main location.
func createTestCompany(t *testing.T, svc *CompanyService, name string) (*models.Company, *models.Location) {
	t.Helper()

	company, err := svc.CreateCompany(context.Background(), testCreateInput(name))
	require.NoError(t, err)

	var main models.Location
	require.NoError(t, svc.db.First(&main, "location_id = ?", company.MainLocationID).Error)
	return company, &main
}

// addTestLocation inserts an extra location directly, with a creation time
// strictly after every existing one so listing order stays deterministic.
func addTestLocation(t *testing.T, db *gorm.DB, companyID, name string, status models.LocationStatus) *models.Location {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Location{}).Where("company_id = ?", companyID).Count(&count).Error)

	created := time.Now().UTC().Add(time.Duration(count) * time.Second)
	location := &models.Location{
		LocationID: uuid.NewString(),
		CompanyID:  companyID,
		Name:       name,
		Status:     status,
		CreatedAt:  created,
		CreatedBy:  "tester",
		ModifiedAt: created,
		ModifiedBy: "tester",
	}
	require.NoError(t, db.Create(location).Error)
	return location
}

func TestCreateCompany_BootstrapsWithMainLocation(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	company, main := createTestCompany(t, svc, "Acme")

	require.NotEmpty(t, company.CompanyID)
	require.Equal(t, "Acme", company.Name)
	require.Equal(t, main.LocationID, company.MainLocationID)
	require.Equal(t, company.CompanyID, main.CompanyID)
	require.Equal(t, models.LocationStatusOpen, main.Status)
	require.False(t, main.Trashed())
}

func TestCreateCompany_RequiresNames(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	input := testCreateInput("Acme")
	input.Name = "   "
	_, err := svc.CreateCompany(context.Background(), input)
	require.ErrorIs(t, err, ErrCompanyNameRequired)

	input = testCreateInput("Acme")
	input.InitialLocation.Name = ""
	_, err = svc.CreateCompany(context.Background(), input)
	require.ErrorIs(t, err, ErrLocationNameRequired)
}

func TestCreateCompany_IdempotentRetry(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	input := testCreateInput("Acme")
	input.IdempotencyKey = "boot-1"

	first, err := svc.CreateCompany(context.Background(), input)
	require.NoError(t, err)

	second, err := svc.CreateCompany(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, first.CompanyID, second.CompanyID)

	var companies int64
	require.NoError(t, db.Model(&models.Company{}).Count(&companies).Error)
	require.EqualValues(t, 1, companies)

	var locations int64
	require.NoError(t, db.Model(&models.Location{}).Count(&locations).Error)
	require.EqualValues(t, 1, locations)
}

func TestCreateCompany_IdempotencyKeyConflict(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	input := testCreateInput("Acme")
	input.IdempotencyKey = "boot-1"
	_, err := svc.CreateCompany(context.Background(), input)
	require.NoError(t, err)

	changed := input
	changed.DisplayName = "Different Display Name"
	_, err = svc.CreateCompany(context.Background(), changed)
	require.ErrorIs(t, err, ErrIdempotencyKeyConflict)
}

func TestGetActiveCompany_HiddenDuringDeletion(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	company, _ := createTestCompany(t, svc, "Acme")

	tombstone := &models.DeletionTombstone{
		DeletionID:     uuid.NewString(),
		CompanyID:      company.CompanyID,
		State:          models.DeletionStateInProgress,
		RequestedAtUTC: time.Now().UTC(),
		RequestedBySub: "tester",
	}
	require.NoError(t, db.Create(tombstone).Error)

	_, err := svc.GetActiveCompany(context.Background(), company.CompanyID)
	require.ErrorIs(t, err, ErrCompanyNotFound)

	_, err = svc.UpdateCompany(context.Background(), company.CompanyID, UpdateCompanyInput{Name: "New", ModifiedBy: "tester"})
	require.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestUpdateCompany_BumpsVersion(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	company, _ := createTestCompany(t, svc, "Acme")

	updated, err := svc.UpdateCompany(context.Background(), company.CompanyID, UpdateCompanyInput{
		Name:        "Acme Renamed",
		DisplayName: "Acme Renamed Inc.",
		Timezone:    "UTC",
		Locale:      "en-US",
		ModifiedBy:  "editor",
	})
	require.NoError(t, err)
	require.Equal(t, "Acme Renamed", updated.Name)
	require.Equal(t, company.Version+1, updated.Version)
	require.Equal(t, "editor", updated.ModifiedBy)
}

func TestUpdateLogo_SetAndRemove(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	company, _ := createTestCompany(t, svc, "Acme")

	updated, err := svc.UpdateLogo(context.Background(), company.CompanyID, "files/logo.png", "editor")
	require.NoError(t, err)
	require.NotNil(t, updated.LogoFileRef)
	require.Equal(t, "files/logo.png", *updated.LogoFileRef)

	cleared, err := svc.RemoveLogo(context.Background(), company.CompanyID, "editor")
	require.NoError(t, err)
	require.Nil(t, cleared.LogoFileRef)
}

func TestSetMainLocation(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	company, _ := createTestCompany(t, svc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	updated, err := svc.SetMainLocation(context.Background(), company.CompanyID, branch.LocationID, "editor")
	require.NoError(t, err)
	require.Equal(t, branch.LocationID, updated.MainLocationID)
}

func TestSetMainLocation_RejectsClosedAndForeign(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	company, _ := createTestCompany(t, svc, "Acme")
	closed := addTestLocation(t, db, company.CompanyID, "Closed Branch", models.LocationStatusClosed)

	_, err := svc.SetMainLocation(context.Background(), company.CompanyID, closed.LocationID, "editor")
	require.ErrorIs(t, err, ErrMainLocationMustBeOpen)

	other, _ := createTestCompany(t, svc, "Other")
	_, err = svc.SetMainLocation(context.Background(), company.CompanyID, other.MainLocationID, "editor")
	require.ErrorIs(t, err, ErrLocationNotInCompany)
}

func TestTrashCompany_CascadesToActiveLocations(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	company, _ := createTestCompany(t, svc, "Acme")
	addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	trashed, err := svc.TrashCompany(context.Background(), company.CompanyID, "admin")
	require.NoError(t, err)
	require.True(t, trashed.Trashed())

	var locations []models.Location
	require.NoError(t, db.Where("company_id = ?", company.CompanyID).Find(&locations).Error)
	require.Len(t, locations, 2)
	for _, loc := range locations {
		require.True(t, loc.Trashed(), "location %s should be trashed", loc.Name)
		require.NotNil(t, loc.TrashedCause)
		require.Equal(t, models.TrashedCauseCascade, *loc.TrashedCause)
	}

	// Repeating the trash is rejected without changing anything
	_, err = svc.TrashCompany(context.Background(), company.CompanyID, "admin")
	require.ErrorIs(t, err, ErrCompanyTrashed)
}

func TestTrashCompany_PreservesManualCause(t *testing.T) {
	db := setupServiceTestDB(t)
	locSvc := NewLocationService(db, nil)
	svc := NewCompanyService(db, nil)

	company, _ := createTestCompany(t, svc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	_, err := locSvc.TrashLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.NoError(t, err)

	_, err = svc.TrashCompany(context.Background(), company.CompanyID, "admin")
	require.NoError(t, err)

	var reloaded models.Location
	require.NoError(t, db.First(&reloaded, "location_id = ?", branch.LocationID).Error)
	require.NotNil(t, reloaded.TrashedCause)
	require.Equal(t, models.TrashedCauseManual, *reloaded.TrashedCause)
}

func TestRestoreCompany_RestoresCascadedOnly(t *testing.T) {
	db := setupServiceTestDB(t)
	locSvc := NewLocationService(db, nil)
	svc := NewCompanyService(db, nil)

	company, main := createTestCompany(t, svc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	// Branch is trashed by hand before the company goes, so its cause stays
	// MANUAL and the restore must leave it in the trash.
	_, err := locSvc.TrashLocation(context.Background(), company.CompanyID, branch.LocationID, "admin")
	require.NoError(t, err)

	_, err = svc.TrashCompany(context.Background(), company.CompanyID, "admin")
	require.NoError(t, err)

	restored, err := svc.RestoreCompany(context.Background(), company.CompanyID, "admin")
	require.NoError(t, err)
	require.False(t, restored.Trashed())
	require.Equal(t, main.LocationID, restored.MainLocationID)

	var reloadedMain models.Location
	require.NoError(t, db.First(&reloadedMain, "location_id = ?", main.LocationID).Error)
	require.False(t, reloadedMain.Trashed())
	require.Nil(t, reloadedMain.TrashedCause)

	var reloadedBranch models.Location
	require.NoError(t, db.First(&reloadedBranch, "location_id = ?", branch.LocationID).Error)
	require.True(t, reloadedBranch.Trashed())
}

func TestRestoreCompany_ReelectsMainLocation(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	company, main := createTestCompany(t, svc, "Acme")
	branch := addTestLocation(t, db, company.CompanyID, "Branch", models.LocationStatusOpen)

	_, err := svc.TrashCompany(context.Background(), company.CompanyID, "admin")
	require.NoError(t, err)

	// The old main stays trashed after restore, forcing a re-election.
	require.NoError(t, db.Model(&models.Location{}).
		Where("location_id = ?", main.LocationID).
		Update("trashed_cause", models.TrashedCauseManual).Error)

	restored, err := svc.RestoreCompany(context.Background(), company.CompanyID, "admin")
	require.NoError(t, err)
	require.Equal(t, branch.LocationID, restored.MainLocationID)
}

func TestRestoreCompany_FailsWithoutOpenLocation(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCompanyService(db, nil)

	company, main := createTestCompany(t, svc, "Acme")

	_, err := svc.TrashCompany(context.Background(), company.CompanyID, "admin")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Location{}).
		Where("location_id = ?", main.LocationID).
		Update("trashed_cause", models.TrashedCauseManual).Error)

	_, err = svc.RestoreCompany(context.Background(), company.CompanyID, "admin")
	require.ErrorIs(t, err, ErrLastOpenLocationRequired)
}

func TestListActiveLocations(t *testing.T) {
	db := setupServiceTestDB(t)
	locSvc := NewLocationService(db, nil)
	svc := NewCompanyService(db, nil)

	company, main := createTestCompany(t, svc, "Acme")
	addTestLocation(t, db, company.CompanyID, "Closed Branch", models.LocationStatusClosed)
	trashed := addTestLocation(t, db, company.CompanyID, "Trashed Branch", models.LocationStatusOpen)

	_, err := locSvc.TrashLocation(context.Background(), company.CompanyID, trashed.LocationID, "admin")
	require.NoError(t, err)

	params := utils.PaginationParams{Page: 1, Limit: 20}

	locations, total, err := svc.ListActiveLocations(context.Background(), company.CompanyID, nil, params)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, locations, 2)

	open := models.LocationStatusOpen
	locations, total, err = svc.ListActiveLocations(context.Background(), company.CompanyID, &open, params)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, main.LocationID, locations[0].LocationID)
}
