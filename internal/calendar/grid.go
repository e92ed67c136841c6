package calendar

import (
	"time"

	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/domain"
)

// Day is one cell of a month grid. Leading padding cells have Day == 0.
type Day struct {
	Day    int            `json:"day"`
	Date   *time.Time     `json:"date,omitempty"`
	Events []domain.Event `json:"events"`
}

// IsBlank reports whether d is a leading padding cell
func (d Day) IsBlank() bool {
	return d.Day == 0
}

// MonthStart returns midnight of the first day of anchor's month in anchor's location
func MonthStart(anchor time.Time) time.Time {
	return time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
}

// DaysIn returns the number of days in anchor's month
func DaysIn(anchor time.Time) int {
	return MonthStart(anchor).AddDate(0, 1, -1).Day()
}

// BuildMonthGrid returns weekday(first of month) blank cells, Sunday = 0, followed by
// one cell per day. Dates are taken in monthAnchor's location. Recurring events are
// listed on every day one of their occurrences starts; an occurrence is the event with
// Start/End shifted, ID unchanged. Within a cell, events keep input order.
func (p *Projector) BuildMonthGrid(events []domain.Event, monthAnchor time.Time) []Day {
	loc := monthAnchor.Location()
	first := MonthStart(monthAnchor)
	next := first.AddDate(0, 1, 0)
	lead := int(first.Weekday())
	days := DaysIn(monthAnchor)

	grid := make([]Day, lead+days)
	for i := 0; i < lead; i++ {
		grid[i] = Day{Events: []domain.Event{}}
	}
	for d := 1; d <= days; d++ {
		date := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, loc)
		grid[lead+d-1] = Day{Day: d, Date: &date, Events: []domain.Event{}}
	}

	for _, e := range events {
		repeat := normalizedRepeat(e.Repeat)
		if e.Start.IsZero() || !repeat.IsValid() {
			p.log.Warn("skipping malformed event",
				zap.String("event_id", e.ID),
				zap.String("repeat", string(e.Repeat)),
				zap.Bool("zero_start", e.Start.IsZero()),
			)
			continue
		}

		if repeat == domain.RepeatOnce {
			start := e.Start.In(loc)
			if sameMonth(start, first) {
				cell := &grid[lead+start.Day()-1]
				cell.Events = append(cell.Events, e)
			}
			continue
		}

		for _, occ := range p.occurrences(e, first, next, loc) {
			start := occ.In(loc)
			if !sameMonth(start, first) {
				continue
			}
			shifted := e
			shifted.Start = occ
			shifted.End = occ.Add(e.Duration())
			cell := &grid[lead+start.Day()-1]
			cell.Events = append(cell.Events, shifted)
		}
	}

	return grid
}

func sameMonth(t, first time.Time) bool {
	return t.Year() == first.Year() && t.Month() == first.Month()
}
