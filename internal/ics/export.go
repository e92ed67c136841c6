// Package ics renders tenant events as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/workpulse/work-pulse/internal/calendar"
	"github.com/workpulse/work-pulse/internal/domain"
)

// ProductID identifies this exporter in PRODID
const ProductID = "-//Work Pulse//Calendar Export//EN"

// ContentType is the media type of an export
const ContentType = "text/calendar; charset=utf-8"

// Build converts events into a VCALENDAR. Recurring events carry an RRULE instead of
// being expanded; malformed events are left out.
func Build(name string, events []domain.Event, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	if name != "" {
		cal.Props.SetText(ical.PropName, name)
	}

	for _, e := range events {
		if e.Start.IsZero() {
			continue
		}
		cal.Children = append(cal.Children, eventComponent(e, stamp))
	}
	return cal
}

// Write encodes the calendar built from events to w
func Write(w io.Writer, name string, events []domain.Event, stamp time.Time) error {
	if err := ical.NewEncoder(w).Encode(Build(name, events, stamp)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func eventComponent(e domain.Event, stamp time.Time) *ical.Component {
	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, e.ID)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	comp.Props.SetDateTime(ical.PropDateTimeStart, e.Start.UTC())
	comp.Props.SetDateTime(ical.PropDateTimeEnd, e.End.UTC())
	comp.Props.SetText(ical.PropSummary, e.Title)
	comp.Props.SetText(ical.PropCategories, string(e.Type))

	if e.Description != "" {
		comp.Props.SetText(ical.PropDescription, e.Description)
	}
	if e.Location != "" {
		comp.Props.SetText(ical.PropLocation, e.Location)
	}
	if !e.UpdatedAt.IsZero() {
		comp.Props.SetDateTime(ical.PropLastModified, e.UpdatedAt.UTC())
	}

	if rule, ok := calendar.RecurrenceRule(e); ok {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = rule.RRuleString()
		comp.Props.Set(prop)
	}
	return comp
}
