package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drrm-training-api/internal/dto"
	"github.com/noah-isme/drrm-training-api/internal/models"
	"github.com/noah-isme/drrm-training-api/pkg/response"
)

type applicantService interface {
	List(ctx context.Context, filter models.ApplicantFilter) ([]models.Applicant, *models.Pagination, error)
	Create(ctx context.Context, req dto.CreateApplicantRequest) (*models.Applicant, error)
}

// ApplicantHandler exposes applicant registration endpoints.
type ApplicantHandler struct {
	service applicantService
}

func NewApplicantHandler(service applicantService) *ApplicantHandler {
	return &ApplicantHandler{service: service}
}

// List godoc
// @Summary List applicants
// @Tags Applicants
// @Produce json
// @Param programId query string false "Program ID"
// @Param municipality query string false "Municipality"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applicants [get]
func (h *ApplicantHandler) List(c *gin.Context) {
	filter := models.ApplicantFilter{
		ProgramID:    c.Query("programId"),
		Municipality: c.Query("municipality"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	applicants, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applicants, pagination)
}

// Create godoc
// @Summary Register applicant
// @Tags Applicants
// @Accept json
// @Produce json
// @Param payload body dto.CreateApplicantRequest true "Applicant payload"
// @Success 201 {object} response.Envelope
// @Router /applicants [post]
func (h *ApplicantHandler) Create(c *gin.Context) {
	var req dto.CreateApplicantRequest
	if !bindJSON(c, &req, "applicant") {
		return
	}
	applicant, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, applicant)
}
