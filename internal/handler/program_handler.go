package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drrm-training-api/internal/dto"
	"github.com/noah-isme/drrm-training-api/internal/middleware"
	"github.com/noah-isme/drrm-training-api/internal/models"
	"github.com/noah-isme/drrm-training-api/pkg/response"
)

type programService interface {
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Program, error)
	Dates(ctx context.Context, id string) (*dto.ProgramDatesResponse, error)
	Create(ctx context.Context, req dto.ProgramRequest, actor *models.JWTClaims) (*models.Program, error)
	Update(ctx context.Context, id string, req dto.ProgramRequest, actor *models.JWTClaims) (*models.Program, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// ProgramHandler exposes training program endpoints.
type ProgramHandler struct {
	service programService
}

func NewProgramHandler(service programService) *ProgramHandler {
	return &ProgramHandler{service: service}
}

// List godoc
// @Summary List training programs
// @Tags Programs
// @Produce json
// @Param trainer query string false "Trainer"
// @Param type query string false "Program type"
// @Param venue query string false "Venue"
// @Param q query string false "Title search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	filter := models.ProgramFilter{
		Trainer: c.Query("trainer"),
		Type:    c.Query("type"),
		Venue:   c.Query("venue"),
		Search:  c.Query("q"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	programs, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, pagination)
}

// Get godoc
// @Summary Get training program
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, program)
}

// Dates godoc
// @Summary Normalized program dates
// @Description Day instants the program occupies in the configured timezone
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/dates [get]
func (h *ProgramHandler) Dates(c *gin.Context) {
	dates, err := h.service.Dates(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dates)
}

// Create godoc
// @Summary Create training program
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body dto.ProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	var req dto.ProgramRequest
	if !bindJSON(c, &req, "program") {
		return
	}
	program, err := h.service.Create(c.Request.Context(), req, middleware.CurrentClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Update godoc
// @Summary Replace training program
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.ProgramRequest true "Program payload"
// @Success 200 {object} response.Envelope
// @Router /programs/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	var req dto.ProgramRequest
	if !bindJSON(c, &req, "program") {
		return
	}
	program, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.CurrentClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, program)
}

// Delete godoc
// @Summary Delete training program
// @Tags Programs
// @Param id path string true "Program ID"
// @Success 204
// @Router /programs/{id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentClaims(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
