package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drrm-training-api/internal/middleware"
	"github.com/noah-isme/drrm-training-api/internal/models"
	"github.com/noah-isme/drrm-training-api/pkg/response"
)

type calendarService interface {
	Build(ctx context.Context, filters models.CalendarFilters) (models.CalendarBuild, bool, error)
}

// CalendarHandler serves the training calendar.
type CalendarHandler struct {
	service calendarService
}

func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Events godoc
// @Summary Training calendar events
// @Description Events plus trainer, type and venue filter options
// @Tags Calendar
// @Produce json
// @Param trainer query string false "Trainer"
// @Param type query string false "Program type"
// @Param venue query string false "Venue"
// @Success 200 {object} response.Envelope
// @Router /calendar/events [get]
func (h *CalendarHandler) Events(c *gin.Context) {
	filters := models.CalendarFilters{
		Trainer: c.Query("trainer"),
		Type:    c.Query("type"),
		Venue:   c.Query("venue"),
	}
	build, hit, err := h.service.Build(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, build, middleware.ExtractMeta(c))
}
