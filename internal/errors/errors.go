package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"

	// Domain invariant violations
	ErrCodeMainLocationRequired     = "MAIN_LOCATION_REQUIRED"
	ErrCodeMainLocationMustBeOpen   = "MAIN_LOCATION_MUST_BE_OPEN"
	ErrCodeLastOpenLocationRequired = "LAST_OPEN_LOCATION_REQUIRED"
	ErrCodeCannotCloseMainLocation  = "CANNOT_CLOSE_MAIN_LOCATION"
	ErrCodeCannotTrashMainLocation  = "CANNOT_TRASH_MAIN_LOCATION"
	ErrCodeLocationNotInCompany     = "LOCATION_NOT_IN_COMPANY"
	ErrCodeCompanyTrashed           = "COMPANY_TRASHED_OPERATION_NOT_ALLOWED"
	ErrCodeIdempotencyKeyConflict   = "IDEMPOTENCY_KEY_CONFLICT"

	// Validation errors
	ErrCodeValidationFailed = "VALIDATION_FAILED"

	// Authorization errors
	ErrCodeAccessDenied = "ACCESS_DENIED"

	// Concurrency errors
	ErrCodeOptimisticLockFailed = "OPTIMISTIC_LOCK_FAILED"

	// Service errors
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Helper functions for common error responses

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeValidationFailed, message))
}

// AccessDenied sends a 403 response
func AccessDenied(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(ErrCodeAccessDenied, message))
}

// Conflict sends a 409 response carrying a domain error code
func Conflict(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusConflict, NewAPIError(code, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}
