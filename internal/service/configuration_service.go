package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/drrm-training-api/internal/dto"
	"github.com/noah-isme/drrm-training-api/internal/models"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
	"github.com/noah-isme/drrm-training-api/pkg/realtime"
)

type configurationRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error)
	Get(ctx context.Context, key string) (*models.Configuration, error)
	Upsert(ctx context.Context, cfg *models.Configuration) error
	BulkUpsert(ctx context.Context, cfgs []models.Configuration) error
}

// settingSpec describes one key the portal accepts.
type settingSpec struct {
	Key         string
	Type        models.ConfigurationType
	Description string
	Default     string
	HasDefault  bool
	// Coverage marks keys whose change makes coverage statistics stale.
	Coverage bool
}

// configurationCatalog is ordered as List returns it.
var configurationCatalog = []settingSpec{
	{
		Key:         models.ConfigKeyPopulationReference,
		Type:        models.ConfigurationTypeJSON,
		Description: "Population per municipality and barangay used as coverage denominators",
		Default:     `{}`,
		HasDefault:  true,
		Coverage:    true,
	},
	{
		Key:         models.ConfigKeyCoverageThresholds,
		Type:        models.ConfigurationTypeJSON,
		Description: "Coverage tier thresholds for municipalities and barangays",
		Default:     `{"municipality":[],"barangay":[]}`,
		HasDefault:  true,
		Coverage:    true,
	},
	{
		Key:         models.ConfigKeyPortalDisplayName,
		Type:        models.ConfigurationTypeString,
		Description: "Display name shown in portal headers",
	},
	{
		Key:         models.ConfigKeyCoverageExportsUI,
		Type:        models.ConfigurationTypeBoolean,
		Description: "Shows coverage export actions in the portal",
		Default:     "false",
		HasDefault:  true,
	},
}

func lookupSetting(key string) (settingSpec, bool) {
	for _, spec := range configurationCatalog {
		if spec.Key == key {
			return spec, true
		}
	}
	return settingSpec{}, false
}

// ConfigurationServiceConfig overrides catalog defaults, keyed by setting key.
type ConfigurationServiceConfig struct {
	Defaults map[string]string
}

// ConfigurationService reads and writes portal settings, including the coverage
// population reference and tier thresholds.
type ConfigurationService struct {
	repo      configurationRepository
	audit     auditLogger
	cache     *CacheService
	events    eventPublisher
	validator *validator.Validate
	logger    *zap.Logger
	overrides map[string]string
}

func NewConfigurationService(repo configurationRepository, audit auditLogger, cache *CacheService, events eventPublisher, validate *validator.Validate, logger *zap.Logger, cfg ConfigurationServiceConfig) *ConfigurationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	overrides := make(map[string]string, len(cfg.Defaults))
	for key, value := range cfg.Defaults {
		if value != "" {
			overrides[key] = value
		}
	}
	return &ConfigurationService{
		repo:      repo,
		audit:     audit,
		cache:     cache,
		events:    events,
		validator: validate,
		logger:    logger,
		overrides: overrides,
	}
}

// List returns every catalog key, falling back to defaults for unset ones.
func (s *ConfigurationService) List(ctx context.Context) ([]dto.ConfigurationItem, error) {
	keys := make([]string, len(configurationCatalog))
	for i, spec := range configurationCatalog {
		keys[i] = spec.Key
	}
	rows, err := s.repo.ListByKeys(ctx, keys)
	if err != nil {
		return nil, internalError(err, "failed to list configurations")
	}
	stored := make(map[string]*models.Configuration, len(rows))
	for i := range rows {
		stored[rows[i].Key] = &rows[i]
	}

	items := make([]dto.ConfigurationItem, 0, len(configurationCatalog))
	for _, spec := range configurationCatalog {
		if row, ok := stored[spec.Key]; ok {
			items = append(items, describe(spec, row))
			continue
		}
		value, _ := s.fallback(spec)
		items = append(items, describe(spec, &models.Configuration{Key: spec.Key, Value: value, Type: spec.Type}))
	}
	return items, nil
}

func (s *ConfigurationService) Get(ctx context.Context, key string) (*dto.ConfigurationItem, error) {
	spec, err := requireSetting(key)
	if err != nil {
		return nil, err
	}
	row, err := s.load(ctx, spec)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "configuration not found")
	}
	item := describe(spec, row)
	return &item, nil
}

// Update validates value for key, stores its canonical form and announces the change.
func (s *ConfigurationService) Update(ctx context.Context, key string, value string, actor *models.JWTClaims) (*dto.ConfigurationItem, error) {
	spec, err := requireSetting(key)
	if err != nil {
		return nil, err
	}
	canonical, err := s.canonicalise(spec, value)
	if err != nil {
		return nil, err
	}

	prev, err := s.repo.Get(ctx, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		prev = nil
	case err != nil:
		return nil, internalError(err, "failed to fetch configuration")
	case prev.Type != spec.Type:
		return nil, appErrors.Clone(appErrors.ErrValidation, "configuration type mismatch")
	}

	row := newSettingRow(spec, canonical, actor)
	if err := s.repo.Upsert(ctx, &row); err != nil {
		return nil, internalError(err, "failed to update configuration")
	}
	s.auditChange(ctx, actor, key, prev, canonical)
	s.announce(ctx, key, spec.Coverage)

	item := describe(spec, &row)
	return &item, nil
}

// BulkUpdate validates every item before writing any of them.
func (s *ConfigurationService) BulkUpdate(ctx context.Context, req dto.BulkUpdateConfigurationRequest, actor *models.JWTClaims) ([]dto.ConfigurationItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid bulk payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	keys := make([]string, len(req.Items))
	for i, item := range req.Items {
		keys[i] = item.Key
	}
	current, err := s.repo.ListByKeys(ctx, keys)
	if err != nil {
		return nil, internalError(err, "failed to load existing configurations")
	}
	previous := make(map[string]*models.Configuration, len(current))
	for i := range current {
		previous[current[i].Key] = &current[i]
	}

	rows := make([]models.Configuration, 0, len(req.Items))
	specs := make([]settingSpec, 0, len(req.Items))
	for _, item := range req.Items {
		spec, err := requireSetting(item.Key)
		if err != nil {
			return nil, err
		}
		canonical, err := s.canonicalise(spec, string(item.Value))
		if err != nil {
			return nil, err
		}
		if prev, ok := previous[item.Key]; ok && prev.Type != spec.Type {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("configuration type mismatch for %s", item.Key))
		}
		rows = append(rows, newSettingRow(spec, canonical, actor))
		specs = append(specs, spec)
	}

	if err := s.repo.BulkUpsert(ctx, rows); err != nil {
		return nil, internalError(err, "failed to bulk update configurations")
	}

	items := make([]dto.ConfigurationItem, len(rows))
	coverage := false
	for i := range rows {
		items[i] = describe(specs[i], &rows[i])
		s.auditChange(ctx, actor, rows[i].Key, previous[rows[i].Key], rows[i].Value)
		coverage = coverage || specs[i].Coverage
	}
	s.announce(ctx, "bulk", coverage)
	return items, nil
}

// PopulationReference returns the stored population reference, or an empty one.
func (s *ConfigurationService) PopulationReference(ctx context.Context) (models.PopulationReference, error) {
	ref := models.PopulationReference{}
	if err := s.decodeSetting(ctx, models.ConfigKeyPopulationReference, &ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// CoverageConfig returns the stored coverage tiers.
func (s *ConfigurationService) CoverageConfig(ctx context.Context) (models.CoverageConfig, error) {
	var cfg models.CoverageConfig
	if err := s.decodeSetting(ctx, models.ConfigKeyCoverageThresholds, &cfg); err != nil {
		return models.CoverageConfig{}, err
	}
	return cfg, nil
}

func (s *ConfigurationService) decodeSetting(ctx context.Context, key string, dest interface{}) error {
	spec, _ := lookupSetting(key)
	row, err := s.load(ctx, spec)
	if err != nil {
		return err
	}
	if row == nil || strings.TrimSpace(row.Value) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(row.Value), dest); err != nil {
		return internalError(err, fmt.Sprintf("stored %s is malformed", key))
	}
	return nil
}

// load returns the stored row, a synthetic row built from the default, or nil.
func (s *ConfigurationService) load(ctx context.Context, spec settingSpec) (*models.Configuration, error) {
	row, err := s.repo.Get(ctx, spec.Key)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to get configuration")
	}
	value, ok := s.fallback(spec)
	if !ok {
		return nil, nil
	}
	return &models.Configuration{Key: spec.Key, Value: value, Type: spec.Type}, nil
}

func (s *ConfigurationService) fallback(spec settingSpec) (string, bool) {
	if value, ok := s.overrides[spec.Key]; ok {
		return value, true
	}
	return spec.Default, spec.HasDefault
}

// canonicalise checks value against the key's type and returns its stored form.
func (s *ConfigurationService) canonicalise(spec settingSpec, value string) (string, error) {
	switch spec.Type {
	case models.ConfigurationTypeBoolean:
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized != "true" && normalized != "false" {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects boolean value", spec.Key))
		}
		return normalized, nil
	case models.ConfigurationTypeString:
		return strings.TrimSpace(value), nil
	case models.ConfigurationTypeJSON:
		return s.canonicalObject(spec.Key, value)
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported configuration type")
	}
}

func (s *ConfigurationService) canonicalObject(key, value string) (string, error) {
	invalid := fmt.Sprintf("%s expects a JSON object", key)
	if !strings.HasPrefix(strings.TrimSpace(value), "{") {
		return "", appErrors.Clone(appErrors.ErrValidation, invalid)
	}
	var target interface{} = &map[string]interface{}{}
	switch key {
	case models.ConfigKeyPopulationReference:
		target = &models.PopulationReference{}
	case models.ConfigKeyCoverageThresholds:
		target = &models.CoverageConfig{}
	}
	if err := json.Unmarshal([]byte(value), target); err != nil {
		return "", appErrors.Validation(err, invalid)
	}
	if tiers, ok := target.(*models.CoverageConfig); ok {
		if err := s.validator.Struct(tiers); err != nil {
			return "", appErrors.Validation(err, "invalid coverage thresholds")
		}
	}
	encoded, err := json.Marshal(target)
	if err != nil {
		return "", internalError(err, "failed to encode configuration")
	}
	return string(encoded), nil
}

func (s *ConfigurationService) announce(ctx context.Context, key string, coverage bool) {
	if coverage {
		_ = s.cache.Invalidate(ctx, cacheNamespaceCoverage)
		publish(s.events, realtime.TopicCoverage, realtime.EventCoverageInvalidated, key)
	}
	publish(s.events, realtime.TopicConfiguration, realtime.EventConfigurationUpdated, key)
}

func (s *ConfigurationService) auditChange(ctx context.Context, actor *models.JWTClaims, key string, prev *models.Configuration, value string) {
	before := ""
	if prev != nil {
		before = prev.Value
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionConfigUpdate, "configuration", key,
		map[string]string{"key": key, "value": before},
		map[string]string{"key": key, "value": value})
}

func requireSetting(key string) (settingSpec, error) {
	spec, ok := lookupSetting(key)
	if !ok {
		return settingSpec{}, appErrors.Clone(appErrors.ErrValidation, "unsupported configuration key")
	}
	return spec, nil
}

func newSettingRow(spec settingSpec, value string, actor *models.JWTClaims) models.Configuration {
	return models.Configuration{
		Key:         spec.Key,
		Value:       value,
		Type:        spec.Type,
		Description: strPtr(spec.Description),
		UpdatedBy:   userIDPtr(actor),
	}
}

func describe(spec settingSpec, row *models.Configuration) dto.ConfigurationItem {
	item := dto.ConfigurationItem{
		Key:         spec.Key,
		Value:       row.Value,
		Type:        string(spec.Type),
		Description: spec.Description,
	}
	if row.Description != nil && *row.Description != "" {
		item.Description = *row.Description
	}
	return item
}
