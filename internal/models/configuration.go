package models

import "time"

// ConfigurationType declares how a configuration value is validated.
type ConfigurationType string

const (
	ConfigurationTypeString  ConfigurationType = "STRING"
	ConfigurationTypeBoolean ConfigurationType = "BOOLEAN"
	ConfigurationTypeJSON    ConfigurationType = "JSON"
)

// Well-known configuration keys.
const (
	ConfigKeyPopulationReference = "population_reference"
	ConfigKeyCoverageThresholds  = "coverage_thresholds"
	ConfigKeyPortalDisplayName   = "portal_display_name"
	ConfigKeyCoverageExportsUI   = "enable_coverage_exports_ui"
)

// Configuration is a persisted portal setting.
type Configuration struct {
	Key         string            `db:"key" json:"key"`
	Value       string            `db:"value" json:"value"`
	Type        ConfigurationType `db:"type" json:"type"`
	Description *string           `db:"description" json:"description,omitempty"`
	UpdatedBy   *string           `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}
