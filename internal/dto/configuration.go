package dto

import (
	"bytes"
	"encoding/json"
)

// ConfigurationItem represents a configuration entry exposed via API.
type ConfigurationItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ConfigValue is a configuration value as sent by clients. JSON strings are taken
// verbatim; objects, arrays, numbers and booleans keep their raw JSON text so
// population tables and tier lists can be posted without double encoding.
type ConfigValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *ConfigValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = ConfigValue(s)
		return nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		*v = ""
		return nil
	}
	*v = ConfigValue(trimmed)
	return nil
}

// UpdateConfigurationRequest describes payload for updating a single configuration.
type UpdateConfigurationRequest struct {
	Key   string      `json:"key" validate:"required"`
	Value ConfigValue `json:"value" validate:"required"`
}

// BulkUpdateConfigurationRequest holds multiple update requests.
type BulkUpdateConfigurationRequest struct {
	Items []UpdateConfigurationRequest `json:"items" validate:"required,min=1,dive"`
}
