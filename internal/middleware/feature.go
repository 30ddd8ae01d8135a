package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "presusimple/internal/errors"
)

// FeatureEvaluator reports whether a flag is on for a user.
type FeatureEvaluator interface {
	IsEnabled(key, userID string) bool
}

// RequireFeature hides a route behind a feature flag. It must run after
// AuthMiddleware; disabled routes answer 404.
func RequireFeature(flags FeatureEvaluator, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !flags.IsEnabled(key, c.GetString(ContextUserID)) {
			abortWithError(c, apperrors.ErrFeatureDisabled)
			return
		}
		c.Next()
	}
}
