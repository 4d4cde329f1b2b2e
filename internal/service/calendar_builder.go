package service

import (
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

var calendarPalette = []string{
	"#1E88E5", "#43A047", "#E53935", "#FB8C00", "#8E24AA",
	"#00ACC1", "#6D4C41", "#3949AB", "#C0CA33", "#D81B60",
}

// ProgramColor maps a program id onto the palette. The same id always gets the same colour.
func ProgramColor(programID string) string {
	return calendarPalette[xxhash.Sum64String(programID)%uint64(len(calendarPalette))]
}

// BuildCalendarEvents derives calendar events from programs matching filters.
// Option lists cover every program regardless of filters.
func BuildCalendarEvents(programs []models.Program, filters models.CalendarFilters, loc *time.Location) models.CalendarBuild {
	if loc == nil {
		loc = time.UTC
	}

	trainers := newOptionSet()
	types := newOptionSet()
	venues := newOptionSet()
	build := models.CalendarBuild{Events: []models.CalendarEvent{}}

	for _, program := range programs {
		trainers.add(program.TrainerAssigned...)
		types.add(program.Type)
		venues.add(program.ProgramVenue)

		if program.HasRange() && program.HasSelectedDates() {
			build.FlaggedPrograms = append(build.FlaggedPrograms, program.ID)
		}
		if !matchesCalendarFilters(program, filters) {
			continue
		}
		build.Events = append(build.Events, programEvents(program, loc)...)
	}

	build.TrainerOptions = trainers.sorted()
	build.TypeOptions = types.sorted()
	build.VenueOptions = venues.sorted()
	return build
}

func programEvents(program models.Program, loc *time.Location) []models.CalendarEvent {
	props := models.CalendarEventProps{
		Program: program,
		Trainer: strings.Join(program.TrainerAssigned, ", "),
	}
	event := func(start, end models.Instant) models.CalendarEvent {
		return models.CalendarEvent{
			Title:         program.ProgramTitle,
			Start:         start,
			End:           end,
			Color:         ProgramColor(program.ID),
			ExtendedProps: props,
		}
	}

	// The headline span uses the untruncated end; the exclusive day list is only for ticks.
	if program.HasRange() {
		start := models.EpochSeconds(*program.StartDate).In(loc)
		end := models.EpochSeconds(*program.EndDate).In(loc)
		return []models.CalendarEvent{event(start, end)}
	}

	dates := NormalizeProgramDates(program, loc).Dates
	events := make([]models.CalendarEvent, 0, len(dates))
	for _, date := range dates {
		events = append(events, event(date, date))
	}
	return events
}

func matchesCalendarFilters(program models.Program, filters models.CalendarFilters) bool {
	if filters.Trainer != "" && !containsString(program.TrainerAssigned, filters.Trainer) {
		return false
	}
	if filters.Type != "" && program.Type != filters.Type {
		return false
	}
	if filters.Venue != "" && program.ProgramVenue != filters.Venue {
		return false
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

type optionSet map[string]struct{}

func newOptionSet() optionSet { return optionSet{} }

func (s optionSet) add(values ...string) {
	for _, v := range values {
		if v != "" {
			s[v] = struct{}{}
		}
	}
}

func (s optionSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
