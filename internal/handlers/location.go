package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/innologic/company-service/internal/dto"
	apierrors "github.com/innologic/company-service/internal/errors"
	"github.com/innologic/company-service/internal/middleware"
	"github.com/innologic/company-service/internal/services"
)

type LocationHandler struct {
	locations *services.LocationService
}

func NewLocationHandler(locations *services.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// tenantID resolves the caller's tenant header. Location routes address
// locations by id alone, so the tenant header is how ownership is checked.
func tenantID(c *gin.Context) (string, bool) {
	tenant, ok := middleware.GetTenantID(c)
	if !ok {
		apierrors.AccessDenied(c, "")
		return "", false
	}
	return tenant, true
}

// GetLocation returns a visible, non-trashed location
func (h *LocationHandler) GetLocation(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	location, err := h.locations.GetActiveLocationForCompany(c.Param("locationId"), tenant)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(location))
}

// UpdateLocation updates location attributes
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	type UpdateLocationRequest struct {
		Name         string `json:"name" binding:"required"`
		LocationCode string `json:"location_code"`
		Timezone     string `json:"timezone"`
		CountryCode  string `json:"country_code"`
		RegionCode   string `json:"region_code"`
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	location, err := h.locations.UpdateLocation(c.Request.Context(), tenant, c.Param("locationId"), services.UpdateLocationInput{
		Name:         req.Name,
		LocationCode: req.LocationCode,
		Timezone:     req.Timezone,
		CountryCode:  req.CountryCode,
		RegionCode:   req.RegionCode,
		ModifiedBy:   middleware.GetSubjectID(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(location))
}

// CloseLocation closes a location
func (h *LocationHandler) CloseLocation(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	type CloseLocationRequest struct {
		Reason string `json:"reason"`
	}

	var req CloseLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	location, err := h.locations.CloseLocation(c.Request.Context(), tenant, c.Param("locationId"),
		middleware.GetSubjectID(c), req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(location))
}

// ReopenLocation reopens a closed location
func (h *LocationHandler) ReopenLocation(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	location, err := h.locations.ReopenLocation(c.Request.Context(), tenant, c.Param("locationId"), middleware.GetSubjectID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(location))
}

// TrashLocation soft-deletes a location
func (h *LocationHandler) TrashLocation(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	location, err := h.locations.TrashLocation(c.Request.Context(), tenant, c.Param("locationId"), middleware.GetSubjectID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(location))
}

// RestoreLocation un-trashes a location
func (h *LocationHandler) RestoreLocation(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	location, err := h.locations.RestoreLocation(c.Request.Context(), tenant, c.Param("locationId"), middleware.GetSubjectID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(location))
}
