package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
	"github.com/noah-isme/drrm-training-api/pkg/response"
)

const featureHeader = "X-Feature"

// RequireFeature answers FEATURE_DISABLED for every request while the feature is off.
func RequireFeature(name string, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Header(featureHeader, name)
			response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, name+" is disabled"))
			return
		}
		c.Next()
	}
}
