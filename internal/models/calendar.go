package models

// CalendarFilters restrict the built events. Empty fields match everything.
type CalendarFilters struct {
	Trainer string `json:"trainer,omitempty"`
	Type    string `json:"type,omitempty"`
	Venue   string `json:"venue,omitempty"`
}

// Active reports whether any filter is set.
func (f CalendarFilters) Active() bool {
	return f.Trainer != "" || f.Type != "" || f.Venue != ""
}

// CalendarEventProps carries the originating program plus the trainer the event is for.
type CalendarEventProps struct {
	Program
	Trainer string `json:"trainer"`
}

// CalendarEvent is a single block rendered on the training calendar.
type CalendarEvent struct {
	Title         string             `json:"title"`
	Start         Instant            `json:"start"`
	End           Instant            `json:"end"`
	Color         string             `json:"color"`
	ExtendedProps CalendarEventProps `json:"extendedProps"`
}

// CalendarBuild is the full calendar payload including filter choices.
type CalendarBuild struct {
	Events          []CalendarEvent `json:"events"`
	TrainerOptions  []string        `json:"trainerOptions"`
	TypeOptions     []string        `json:"typeOptions"`
	VenueOptions    []string        `json:"venueOptions"`
	FlaggedPrograms []string        `json:"flaggedPrograms,omitempty"`
}
