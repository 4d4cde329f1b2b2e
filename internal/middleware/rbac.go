package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drrm-training-api/internal/models"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
	"github.com/noah-isme/drrm-training-api/pkg/response"
)

// Role groups used by the route table.
var (
	ManagerRoles = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin}
	AnyRole      = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleTrainer, models.RoleParticipant}
)

// RequireRoles rejects requests whose claims carry none of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
