package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drrm-training-api/internal/dto"
	"github.com/noah-isme/drrm-training-api/internal/middleware"
	"github.com/noah-isme/drrm-training-api/internal/models"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
	"github.com/noah-isme/drrm-training-api/pkg/response"
)

type configurationService interface {
	List(ctx context.Context) ([]dto.ConfigurationItem, error)
	Get(ctx context.Context, key string) (*dto.ConfigurationItem, error)
	Update(ctx context.Context, key, value string, actor *models.JWTClaims) (*dto.ConfigurationItem, error)
	BulkUpdate(ctx context.Context, req dto.BulkUpdateConfigurationRequest, actor *models.JWTClaims) ([]dto.ConfigurationItem, error)
}

// ConfigurationHandler exposes portal settings: population reference, coverage
// thresholds, display name and UI flags.
type ConfigurationHandler struct {
	service configurationService
}

func NewConfigurationHandler(service configurationService) *ConfigurationHandler {
	return &ConfigurationHandler{service: service}
}

// List godoc
// @Summary List portal settings
// @Tags Configuration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /configuration [get]
func (h *ConfigurationHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Get godoc
// @Summary Get portal setting by key
// @Tags Configuration
// @Produce json
// @Param key path string true "Configuration key"
// @Success 200 {object} response.Envelope
// @Router /configuration/{key} [get]
func (h *ConfigurationHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Update godoc
// @Summary Update portal setting
// @Description JSON settings accept the value either as an object or as an encoded string
// @Tags Configuration
// @Accept json
// @Produce json
// @Param key path string true "Configuration key"
// @Param payload body dto.UpdateConfigurationRequest true "Configuration payload"
// @Success 200 {object} response.Envelope
// @Router /configuration/{key} [put]
func (h *ConfigurationHandler) Update(c *gin.Context) {
	var req dto.UpdateConfigurationRequest
	if !bindJSON(c, &req, "configuration") {
		return
	}
	key := c.Param("key")
	if req.Key != "" && req.Key != key {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "key mismatch between path and body"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), key, string(req.Value), middleware.CurrentClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// BulkUpdate godoc
// @Summary Bulk update portal settings
// @Description Applied atomically; coverage caches are invalidated once
// @Tags Configuration
// @Accept json
// @Produce json
// @Param payload body dto.BulkUpdateConfigurationRequest true "Bulk configuration payload"
// @Success 200 {object} response.Envelope
// @Router /configuration/bulk [put]
func (h *ConfigurationHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkUpdateConfigurationRequest
	if !bindJSON(c, &req, "bulk") {
		return
	}
	items, err := h.service.BulkUpdate(c.Request.Context(), req, middleware.CurrentClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}
