package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	MinPage         = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// NewPaginationResponse builds the pagination metadata for a result page
func NewPaginationResponse(params PaginationParams, total int64) PaginationResponse {
	return PaginationResponse{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
	}
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(MinPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize)))

	if page < MinPage {
		page = MinPage
	}
	if limit < 1 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	offset := (page - 1) * limit

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: offset,
	}
}
