package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PopulationNotAvailable is emitted for unknown population figures.
const PopulationNotAvailable = "N/A"

// PopulationCount is a population figure that may be unknown.
// A known zero is distinct from unknown.
type PopulationCount struct {
	Value float64
	Known bool
}

func KnownPopulation(v float64) PopulationCount {
	return PopulationCount{Value: v, Known: true}
}

// Positive reports whether the figure can be used as a coverage denominator.
func (p PopulationCount) Positive() bool {
	return p.Known && p.Value > 0
}

func (p PopulationCount) String() string {
	if !p.Known {
		return PopulationNotAvailable
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}

// UnmarshalJSON accepts numbers and numeric strings; anything else is unknown.
func (p *PopulationCount) UnmarshalJSON(data []byte) error {
	*p = parsePopulation(data)
	return nil
}

func (p PopulationCount) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return json.Marshal(PopulationNotAvailable)
	}
	return []byte(strconv.FormatFloat(p.Value, 'f', -1, 64)), nil
}

func parsePopulation(data []byte) PopulationCount {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return PopulationCount{}
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return PopulationCount{}
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return PopulationCount{}
		}
		return KnownPopulation(v)
	case 'n', 't', 'f', '{', '[':
		return PopulationCount{}
	default:
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return PopulationCount{}
		}
		return KnownPopulation(v)
	}
}

// MunicipalityPopulation holds the reference figures for one municipality.
type MunicipalityPopulation struct {
	TotalPopulation PopulationCount            `json:"totalPopulation"`
	Barangays       map[string]PopulationCount `json:"barangays"`
}

// UnmarshalJSON reads camelCase keys first and falls back to snake_case when the
// camelCase key is absent or null. Barangay entries may be bare numbers or objects.
func (m *MunicipalityPopulation) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode municipality population: %w", err)
	}

	out := MunicipalityPopulation{Barangays: map[string]PopulationCount{}}
	if raw, ok := firstPresent(fields, "totalPopulation", "total_population"); ok {
		out.TotalPopulation = parsePopulation(raw)
	}

	if raw, ok := fields["barangays"]; ok && !isNull(raw) {
		var barangays map[string]json.RawMessage
		if err := json.Unmarshal(raw, &barangays); err != nil {
			return fmt.Errorf("decode barangays: %w", err)
		}
		for name, value := range barangays {
			out.Barangays[name] = barangayPopulation(value)
		}
	}

	*m = out
	return nil
}

// Barangay returns the population for name, or unknown when absent.
func (m MunicipalityPopulation) Barangay(name string) PopulationCount {
	return m.Barangays[name]
}

func barangayPopulation(raw json.RawMessage) PopulationCount {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return parsePopulation(trimmed)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return PopulationCount{}
	}
	if value, ok := firstPresent(fields, "totalPopulation", "total_population", "population"); ok {
		return parsePopulation(value)
	}
	return PopulationCount{}
}

func firstPresent(fields map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, key := range keys {
		if raw, ok := fields[key]; ok && !isNull(raw) {
			return raw, true
		}
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// PopulationReference maps municipality names to their population figures.
type PopulationReference map[string]MunicipalityPopulation

// Municipality returns the entry for name, if any.
func (r PopulationReference) Municipality(name string) (MunicipalityPopulation, bool) {
	m, ok := r[name]
	return m, ok
}
