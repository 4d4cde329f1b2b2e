package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Program is a scheduled training offering.
type Program struct {
	ID              string      `db:"id" json:"id"`
	ProgramTitle    string      `db:"program_title" json:"programTitle"`
	Type            string      `db:"type" json:"type"`
	ProgramVenue    string      `db:"program_venue" json:"programVenue"`
	TrainerAssigned TrainerList `db:"trainer_assigned" json:"trainerAssigned"`
	StartDate       *int64      `db:"start_date" json:"startDate,omitempty"`
	EndDate         *int64      `db:"end_date" json:"endDate,omitempty"`
	SelectedDates   DateValues  `db:"selected_dates" json:"selectedDates,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`
}

// HasRange reports whether both range bounds are present. Zero counts as present.
func (p Program) HasRange() bool {
	return p.StartDate != nil && p.EndDate != nil
}

// HasSelectedDates reports whether discrete dates were supplied.
func (p Program) HasSelectedDates() bool {
	return len(p.SelectedDates) > 0
}

// ProgramFilter narrows program listings.
type ProgramFilter struct {
	Trainer  string
	Type     string
	Venue    string
	Search   string
	Page     int
	PageSize int
}

// NormalizedDates is the flat list of day instants a program occupies.
type NormalizedDates struct {
	Dates          []Instant `json:"dates"`
	IsDiscreteMode bool      `json:"isDiscreteMode"`
	DualMode       bool      `json:"dualMode,omitempty"`
}

// TrainerList holds trainer identifiers. Upstream records carry either a single
// string or an array, so both decode into a list.
type TrainerList []string

// UnmarshalJSON accepts a string, an array of scalars, or null.
func (t *TrainerList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode trainerAssigned: %w", err)
	}
	switch v := raw.(type) {
	case nil:
		*t = nil
	case string:
		if strings.TrimSpace(v) == "" {
			*t = TrainerList{}
			return nil
		}
		*t = TrainerList{v}
	case float64:
		*t = TrainerList{strconv.FormatFloat(v, 'f', -1, 64)}
	case []interface{}:
		list := make(TrainerList, 0, len(v))
		for _, item := range v {
			switch s := item.(type) {
			case string:
				list = append(list, s)
			case float64:
				list = append(list, strconv.FormatFloat(s, 'f', -1, 64))
			}
		}
		*t = list
	default:
		return fmt.Errorf("decode trainerAssigned: unsupported value %T", raw)
	}
	return nil
}

// MarshalJSON always emits an array.
func (t TrainerList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// Value implements driver.Valuer.
func (t TrainerList) Value() (driver.Value, error) {
	return t.MarshalJSON()
}

// Scan implements sql.Scanner.
func (t *TrainerList) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan trainerAssigned: %w", err)
	}
	if len(data) == 0 {
		*t = nil
		return nil
	}
	return t.UnmarshalJSON(data)
}
