package calendar

import (
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/domain"
)

var frequencies = map[domain.RepeatRule]rrule.Frequency{
	domain.RepeatDaily:   rrule.DAILY,
	domain.RepeatWeekly:  rrule.WEEKLY,
	domain.RepeatMonthly: rrule.MONTHLY,
	domain.RepeatYearly:  rrule.YEARLY,
}

// recurrenceEnd returns the inclusive end of e's recurrence: the last instant of the
// RepeatEndDate calendar day in loc.
func recurrenceEnd(e domain.Event, loc *time.Location) mo.Option[time.Time] {
	if e.RepeatEndDate == nil {
		return mo.None[time.Time]()
	}
	d := e.RepeatEndDate.In(loc)
	return mo.Some(time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc))
}

// occurrences returns the starts of e's occurrences in [from, to), stepping on loc's
// wall clock: a weekly event keeps its weekday and local time across DST changes.
// Monthly and yearly rules follow RFC 5545: a start on the 31st skips shorter
// months and Feb 29 only recurs in leap years.
func (p *Projector) occurrences(e domain.Event, from, to time.Time, loc *time.Location) []time.Time {
	freq, ok := frequencies[e.Repeat]
	if !ok {
		return nil
	}

	start := e.Start.In(loc)
	until := recurrenceEnd(e, loc).OrElse(start.Add(p.horizon))
	if until.Before(start) {
		// an end date before the first occurrence leaves just the first one
		if !start.Before(from) && start.Before(to) {
			return []time.Time{start}
		}
		return nil
	}
	if until.Before(from) || !start.Before(to) {
		return nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    freq,
		Dtstart: start,
		Until:   until,
	})
	if err != nil {
		p.log.Warn("failed to build recurrence rule",
			zap.String("event_id", e.ID),
			zap.String("repeat", string(e.Repeat)),
			zap.Error(err),
		)
		return nil
	}

	times := rule.Between(from, to.Add(-time.Nanosecond), true)
	if len(times) > p.maxOccurrences {
		p.log.Warn("recurrence capped",
			zap.String("event_id", e.ID),
			zap.Int("occurrences", len(times)),
			zap.Int("cap", p.maxOccurrences),
		)
		times = times[:p.maxOccurrences]
	}
	return times
}

// RecurrenceRule describes e's repeat rule as an RFC 5545 rule without DTSTART.
// It reports false for one-off events.
func RecurrenceRule(e domain.Event) (*rrule.ROption, bool) {
	freq, ok := frequencies[normalizedRepeat(e.Repeat)]
	if !ok {
		return nil, false
	}
	opt := &rrule.ROption{Freq: freq}
	if end, ok := recurrenceEnd(e, e.Start.Location()).Get(); ok {
		opt.Until = end
	}
	return opt, true
}
