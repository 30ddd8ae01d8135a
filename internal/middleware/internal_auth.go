package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "presusimple/internal/errors"
)

// InternalAPIKeyHeader carries the shared key for service-to-service calls.
const InternalAPIKeyHeader = "X-API-Key"

var (
	errInternalNotConfigured = &apperrors.AppError{Code: "INTERNAL_API_NOT_CONFIGURED", Message: "Internal endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
	errInvalidAPIKey         = &apperrors.AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// InternalAuthMiddleware validates the X-API-Key header against the
// configured internal API key.
func InternalAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, errInternalNotConfigured)
			return
		}
		key := c.GetHeader(InternalAPIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, errInvalidAPIKey)
			return
		}
		c.Next()
	}
}
