package dto

import (
	"time"

	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/utils"
)

// CompanyDTO represents a company in API responses
type CompanyDTO struct {
	CompanyID      string  `json:"company_id"`
	Name           string  `json:"name"`
	DisplayName    string  `json:"display_name"`
	Timezone       string  `json:"timezone"`
	Locale         string  `json:"locale"`
	LogoFileRef    *string `json:"logo_file_ref,omitempty"`
	MainLocationID string  `json:"main_location_id"`
	CreatedAt      string  `json:"created_at"`
	ModifiedAt     string  `json:"modified_at"`
	Version        int64   `json:"version"`
}

// LocationDTO represents a location in API responses
type LocationDTO struct {
	LocationID   string  `json:"location_id"`
	CompanyID    string  `json:"company_id"`
	Name         string  `json:"name"`
	LocationCode string  `json:"location_code"`
	Status       string  `json:"status"`
	Timezone     string  `json:"timezone"`
	CountryCode  *string `json:"country_code,omitempty"`
	RegionCode   *string `json:"region_code,omitempty"`
	ClosedAt     *string `json:"closed_at,omitempty"`
	ClosedReason *string `json:"closed_reason,omitempty"`
	CreatedAt    string  `json:"created_at"`
	ModifiedAt   string  `json:"modified_at"`
	Version      int64   `json:"version"`
}

// DeletionDTO represents a deletion workflow state in API responses
type DeletionDTO struct {
	DeletionID    string  `json:"deletion_id"`
	CompanyID     string  `json:"company_id"`
	State         string  `json:"state"`
	RequestedAt   string  `json:"requested_at"`
	RequestedBy   string  `json:"requested_by"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	FailedAt      *string `json:"failed_at,omitempty"`
	FailureReason *string `json:"failure_reason,omitempty"`
}

// LocationListDTO represents a paginated locations listing
type LocationListDTO struct {
	Locations  []LocationDTO            `json:"locations"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToCompanyDTO converts a company model to its API representation
func ToCompanyDTO(company *models.Company) CompanyDTO {
	return CompanyDTO{
		CompanyID:      company.CompanyID,
		Name:           company.Name,
		DisplayName:    company.DisplayName,
		Timezone:       company.Timezone,
		Locale:         company.Locale,
		LogoFileRef:    company.LogoFileRef,
		MainLocationID: company.MainLocationID,
		CreatedAt:      company.CreatedAt.UTC().Format(time.RFC3339),
		ModifiedAt:     company.ModifiedAt.UTC().Format(time.RFC3339),
		Version:        company.Version,
	}
}

// ToLocationDTO converts a location model to its API representation
func ToLocationDTO(location *models.Location) LocationDTO {
	return LocationDTO{
		LocationID:   location.LocationID,
		CompanyID:    location.CompanyID,
		Name:         location.Name,
		LocationCode: location.LocationCode,
		Status:       string(location.Status),
		Timezone:     location.Timezone,
		CountryCode:  location.CountryCode,
		RegionCode:   location.RegionCode,
		ClosedAt:     formatOptionalTime(location.ClosedAt),
		ClosedReason: location.ClosedReason,
		CreatedAt:    location.CreatedAt.UTC().Format(time.RFC3339),
		ModifiedAt:   location.ModifiedAt.UTC().Format(time.RFC3339),
		Version:      location.Version,
	}
}

// ToLocationListDTO converts a page of locations to its API representation
func ToLocationListDTO(locations []models.Location, total int64, params utils.PaginationParams) LocationListDTO {
	locationDTOs := make([]LocationDTO, len(locations))
	for i := range locations {
		locationDTOs[i] = ToLocationDTO(&locations[i])
	}

	return LocationListDTO{
		Locations:  locationDTOs,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToDeletionDTO converts a deletion tombstone to its API representation
func ToDeletionDTO(tombstone *models.DeletionTombstone) DeletionDTO {
	return DeletionDTO{
		DeletionID:    tombstone.DeletionID,
		CompanyID:     tombstone.CompanyID,
		State:         string(tombstone.State),
		RequestedAt:   tombstone.RequestedAtUTC.UTC().Format(time.RFC3339),
		RequestedBy:   tombstone.RequestedBySub,
		CompletedAt:   formatOptionalTime(tombstone.CompletedAtUTC),
		FailedAt:      formatOptionalTime(tombstone.FailedAtUTC),
		FailureReason: tombstone.FailureReason,
	}
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}
