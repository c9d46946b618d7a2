package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/innologic/company-service/internal/dto"
	apierrors "github.com/innologic/company-service/internal/errors"
	"github.com/innologic/company-service/internal/logger"
	"github.com/innologic/company-service/internal/middleware"
	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/repository"
	"github.com/innologic/company-service/internal/services"
	"github.com/innologic/company-service/internal/utils"
	"go.uber.org/zap"
)

// HeaderIdempotencyKey makes create and delete requests retry-safe.
const HeaderIdempotencyKey = "Idempotency-Key"

type CompanyHandler struct {
	companies *services.CompanyService
	deletions *services.DeletionService
}

func NewCompanyHandler(companies *services.CompanyService, deletions *services.DeletionService) *CompanyHandler {
	return &CompanyHandler{companies: companies, deletions: deletions}
}

// requireTenant verifies the caller's tenant header matches the addressed
// company. Every company route below /:companyId goes through this.
func requireTenant(c *gin.Context, companyID string) bool {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok || tenantID != companyID {
		apierrors.AccessDenied(c, "")
		return false
	}
	return true
}

// CreateCompany bootstraps a company with its initial main location
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	type InitialLocationRequest struct {
		Name         string `json:"name" binding:"required"`
		LocationCode string `json:"location_code"`
		Timezone     string `json:"timezone"`
	}
	type CreateCompanyRequest struct {
		Name            string                 `json:"name" binding:"required"`
		DisplayName     string                 `json:"display_name"`
		Timezone        string                 `json:"timezone"`
		Locale          string                 `json:"locale"`
		InitialLocation InitialLocationRequest `json:"initial_location" binding:"required"`
	}

	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	company, err := h.companies.CreateCompany(c.Request.Context(), services.CreateCompanyInput{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Timezone:    req.Timezone,
		Locale:      req.Locale,
		InitialLocation: services.InitialLocationInput{
			Name:         req.InitialLocation.Name,
			LocationCode: req.InitialLocation.LocationCode,
			Timezone:     req.InitialLocation.Timezone,
		},
		CreatedBy:      middleware.GetSubjectID(c),
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCompanyDTO(company))
}

// GetCompany returns a visible, non-trashed company
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	company, err := h.companies.GetActiveCompany(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDTO(company))
}

// UpdateCompany updates company display attributes
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	type UpdateCompanyRequest struct {
		Name        string `json:"name" binding:"required"`
		DisplayName string `json:"display_name"`
		Timezone    string `json:"timezone"`
		Locale      string `json:"locale"`
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	company, err := h.companies.UpdateCompany(c.Request.Context(), companyID, services.UpdateCompanyInput{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Timezone:    req.Timezone,
		Locale:      req.Locale,
		ModifiedBy:  middleware.GetSubjectID(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDTO(company))
}

// SetMainLocation designates a different location as the company's main one
func (h *CompanyHandler) SetMainLocation(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	type SetMainLocationRequest struct {
		LocationID string `json:"location_id" binding:"required"`
	}

	var req SetMainLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	company, err := h.companies.SetMainLocation(c.Request.Context(), companyID, req.LocationID, middleware.GetSubjectID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDTO(company))
}

// UpdateLogo sets the company's logo file reference
func (h *CompanyHandler) UpdateLogo(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	type UpdateLogoRequest struct {
		LogoFileRef string `json:"logo_file_ref" binding:"required"`
	}

	var req UpdateLogoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	company, err := h.companies.UpdateLogo(c.Request.Context(), companyID, req.LogoFileRef, middleware.GetSubjectID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDTO(company))
}

// RemoveLogo clears the company's logo file reference
func (h *CompanyHandler) RemoveLogo(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	company, err := h.companies.RemoveLogo(c.Request.Context(), companyID, middleware.GetSubjectID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDTO(company))
}

// ListLocations returns the company's non-trashed locations, optionally
// filtered by status, as a paginated listing
func (h *CompanyHandler) ListLocations(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	var status *models.LocationStatus
	if raw := c.Query("status"); raw != "" {
		s := models.LocationStatus(raw)
		if s != models.LocationStatusOpen && s != models.LocationStatusClosed {
			apierrors.BadRequest(c, "status must be OPEN or CLOSED")
			return
		}
		status = &s
	}

	params := utils.GetPaginationParams(c)
	locations, total, err := h.companies.ListActiveLocations(c.Request.Context(), companyID, status, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationListDTO(locations, total, params))
}

// TrashCompany soft-deletes a company, cascading to its active locations
func (h *CompanyHandler) TrashCompany(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	company, err := h.companies.TrashCompany(c.Request.Context(), companyID, middleware.GetSubjectID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDTO(company))
}

// RestoreCompany un-trashes a company together with its cascaded locations
func (h *CompanyHandler) RestoreCompany(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	company, err := h.companies.RestoreCompany(c.Request.Context(), companyID, middleware.GetSubjectID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDTO(company))
}

// StartDeletion begins the asynchronous deletion workflow for a company
func (h *CompanyHandler) StartDeletion(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	tombstone, err := h.deletions.StartDeletion(c.Request.Context(), companyID,
		middleware.GetSubjectID(c), c.GetHeader(HeaderIdempotencyKey))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.ToDeletionDTO(tombstone))
}

// GetDeletion returns the deletion workflow state for a company
func (h *CompanyHandler) GetDeletion(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	tombstone, err := h.deletions.GetDeletion(companyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeletionDTO(tombstone))
}

// AcknowledgeDeletion records a downstream service's cleanup acknowledgement
func (h *CompanyHandler) AcknowledgeDeletion(c *gin.Context) {
	companyID := c.Param("companyId")
	if !requireTenant(c, companyID) {
		return
	}

	type AckRequest struct {
		ServiceName string `json:"service_name" binding:"required"`
	}

	var req AckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tombstone, err := h.deletions.AcknowledgeDeletion(c.Request.Context(), companyID, req.ServiceName, middleware.GetSubjectID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeletionDTO(tombstone))
}

// respondServiceError maps service-layer sentinels to HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCompanyNotFound):
		apierrors.NotFound(c, "Company not found")
	case errors.Is(err, services.ErrLocationNotFound):
		apierrors.NotFound(c, "Location not found")
	case errors.Is(err, services.ErrDeletionNotFound):
		apierrors.NotFound(c, "Deletion not found")
	case errors.Is(err, services.ErrCompanyTrashed):
		apierrors.Conflict(c, apierrors.ErrCodeCompanyTrashed, "Company is trashed")
	case errors.Is(err, services.ErrMainLocationRequired):
		apierrors.Conflict(c, apierrors.ErrCodeMainLocationRequired, err.Error())
	case errors.Is(err, services.ErrMainLocationMustBeOpen):
		apierrors.Conflict(c, apierrors.ErrCodeMainLocationMustBeOpen, err.Error())
	case errors.Is(err, services.ErrLastOpenLocationRequired):
		apierrors.Conflict(c, apierrors.ErrCodeLastOpenLocationRequired, err.Error())
	case errors.Is(err, services.ErrCannotCloseMainLocation):
		apierrors.Conflict(c, apierrors.ErrCodeCannotCloseMainLocation, err.Error())
	case errors.Is(err, services.ErrCannotTrashMainLocation):
		apierrors.Conflict(c, apierrors.ErrCodeCannotTrashMainLocation, err.Error())
	case errors.Is(err, services.ErrLocationNotInCompany):
		apierrors.Conflict(c, apierrors.ErrCodeLocationNotInCompany, err.Error())
	case errors.Is(err, services.ErrIdempotencyKeyConflict):
		apierrors.Conflict(c, apierrors.ErrCodeIdempotencyKeyConflict, err.Error())
	case errors.Is(err, repository.ErrOptimisticLock):
		apierrors.Conflict(c, apierrors.ErrCodeOptimisticLockFailed, "Concurrent modification, retry the request")
	case errors.Is(err, services.ErrTenantMismatch):
		apierrors.AccessDenied(c, "")
	case errors.Is(err, services.ErrCompanyNameRequired),
		errors.Is(err, services.ErrLocationNameRequired),
		errors.Is(err, services.ErrInvalidCountryCode),
		errors.Is(err, services.ErrInvalidRegionCode),
		errors.Is(err, services.ErrBlankServiceName),
		errors.Is(err, services.ErrServiceNotRequired):
		apierrors.BadRequest(c, err.Error())
	default:
		logger.Get().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		apierrors.InternalError(c, "")
	}
}
