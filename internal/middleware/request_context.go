package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderSubjectID carries the acting subject's identifier.
	HeaderSubjectID = "X-Subject-Id"
	// HeaderCompanyID carries the caller's tenant (company) identifier.
	HeaderCompanyID = "X-Company-Id"
	// HeaderRequestID carries the request correlation id.
	HeaderRequestID = "X-Request-Id"

	contextKeySubjectID = "subjectId"
	contextKeyTenantID  = "tenantId"

	// DefaultSubject is used when no subject header is present, e.g. for
	// service-to-service calls.
	DefaultSubject = "system"
)

// RequestContext extracts the subject and tenant headers into the gin context.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader(HeaderSubjectID)
		if subject == "" {
			subject = DefaultSubject
		}
		c.Set(contextKeySubjectID, subject)

		if tenant := c.GetHeader(HeaderCompanyID); tenant != "" {
			c.Set(contextKeyTenantID, tenant)
		}

		c.Next()
	}
}

// RequestID ensures every request carries a correlation id, generating one
// when the caller did not supply it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// GetSubjectID retrieves the acting subject from context.
func GetSubjectID(c *gin.Context) string {
	if subject, exists := c.Get(contextKeySubjectID); exists {
		if s, ok := subject.(string); ok {
			return s
		}
	}
	return DefaultSubject
}

// GetTenantID retrieves the caller's tenant from context.
func GetTenantID(c *gin.Context) (string, bool) {
	tenant, exists := c.Get(contextKeyTenantID)
	if !exists {
		return "", false
	}
	s, ok := tenant.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
