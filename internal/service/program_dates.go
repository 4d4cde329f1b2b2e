package service

import (
	"time"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

// NormalizeProgramDates expands a program into the day instants it occupies.
//
// Range mode yields one instant per calendar day from StartDate up to, but not
// including, the day of EndDate; a range within one day yields that single day.
// Specific mode decodes every selected date, keeping undecodable entries as invalid
// instants. When both modes are present the range wins and DualMode is set.
func NormalizeProgramDates(program models.Program, loc *time.Location) models.NormalizedDates {
	if loc == nil {
		loc = time.UTC
	}

	switch {
	case program.HasRange():
		return models.NormalizedDates{
			Dates:    expandRange(*program.StartDate, *program.EndDate, loc),
			DualMode: program.HasSelectedDates(),
		}
	case program.HasSelectedDates():
		dates := make([]models.Instant, 0, len(program.SelectedDates))
		for _, value := range program.SelectedDates {
			dates = append(dates, value.Resolve(loc))
		}
		return models.NormalizedDates{Dates: dates, IsDiscreteMode: true}
	default:
		return models.NormalizedDates{Dates: []models.Instant{}}
	}
}

// expandRange steps one calendar day at a time, keeping the wall-clock time of start.
func expandRange(startSec, endSec int64, loc *time.Location) []models.Instant {
	start := time.Unix(startSec, 0).In(loc)
	end := time.Unix(endSec, 0).In(loc)

	if sameDay(start, end) {
		return []models.Instant{models.InstantOf(start)}
	}

	endDay := dayOf(end)
	var dates []models.Instant
	for cursor := start; dayOf(cursor).Before(endDay); cursor = cursor.AddDate(0, 0, 1) {
		dates = append(dates, models.InstantOf(cursor))
	}
	if dates == nil {
		dates = []models.Instant{}
	}
	return dates
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
