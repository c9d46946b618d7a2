package services

import "errors"

// Lookup failures. A company mid hard-deletion is reported as not found: the
// tombstone visibility gate hides the row even though it still exists.
var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrDeletionNotFound = errors.New("deletion workflow not found for company")
)

// Domain invariant violations.
var (
	ErrCompanyTrashed           = errors.New("operation is not allowed for a trashed company")
	ErrMainLocationRequired     = errors.New("main location must exist, belong to the company and not be trashed")
	ErrMainLocationMustBeOpen   = errors.New("main location must be OPEN")
	ErrLastOpenLocationRequired = errors.New("at least one OPEN location is required")
	ErrCannotCloseMainLocation  = errors.New("main location cannot be closed")
	ErrCannotTrashMainLocation  = errors.New("main location cannot be trashed")
	ErrLocationNotInCompany     = errors.New("location must belong to the company and must not be trashed")
	ErrIdempotencyKeyConflict   = errors.New("idempotency key was already used with a different request")
)

// Validation failures.
var (
	ErrCompanyNameRequired  = errors.New("company name cannot be empty")
	ErrLocationNameRequired = errors.New("location name cannot be empty")
	ErrInvalidCountryCode   = errors.New("country code must be two letters")
	ErrInvalidRegionCode    = errors.New("region code must be at most 32 characters")
	ErrBlankServiceName     = errors.New("service name must not be blank")
	ErrServiceNotRequired   = errors.New("service is not part of required deletion acknowledgements")
)

// ErrTenantMismatch is an access-denied condition: the externally resolved
// tenant id does not match the location's owning company.
var ErrTenantMismatch = errors.New("tenant does not match the location's company")
