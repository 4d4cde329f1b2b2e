package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drrm-training-api/internal/middleware"
	"github.com/noah-isme/drrm-training-api/internal/models"
	"github.com/noah-isme/drrm-training-api/pkg/response"
)

type coverageService interface {
	Summary(ctx context.Context, filter models.CoverageFilter) (*models.CoverageReport, bool, error)
}

// CoverageHandler serves applicant coverage statistics.
type CoverageHandler struct {
	service coverageService
}

func NewCoverageHandler(service coverageService) *CoverageHandler {
	return &CoverageHandler{service: service}
}

// Summary godoc
// @Summary Applicant coverage by municipality and barangay
// @Tags Coverage
// @Produce json
// @Param programId query string false "Program ID"
// @Success 200 {object} response.Envelope
// @Router /coverage [get]
func (h *CoverageHandler) Summary(c *gin.Context) {
	report, hit, err := h.service.Summary(c.Request.Context(), models.CoverageFilter{ProgramID: c.Query("programId")})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, report, middleware.ExtractMeta(c))
}
