package handler

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
	"github.com/noah-isme/drrm-training-api/pkg/response"
)

// bindJSON decodes the body into dest and writes a 400 envelope when it cannot.
func bindJSON(c *gin.Context, dest interface{}, what string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid "+what+" payload"))
		return false
	}
	return true
}
