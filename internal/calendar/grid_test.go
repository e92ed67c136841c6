package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse/work-pulse/internal/domain"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func onceEvent(id string, start time.Time) domain.Event {
	return domain.Event{
		ID:     id,
		Title:  "event " + id,
		Start:  start,
		End:    start.Add(time.Hour),
		Type:   domain.EventTypeMeeting,
		Repeat: domain.RepeatOnce,
	}
}

func recurring(id string, start time.Time, repeat domain.RepeatRule, until *time.Time) domain.Event {
	e := onceEvent(id, start)
	e.Repeat = repeat
	e.RepeatEndDate = until
	return e
}

// cellDays returns the day numbers whose cells list the event with id
func cellDays(grid []Day, id string) []int {
	var days []int
	for _, cell := range grid {
		for _, e := range cell.Events {
			if e.ID == id {
				days = append(days, cell.Day)
			}
		}
	}
	return days
}

func TestBuildMonthGrid_October2025Layout(t *testing.T) {
	grid := BuildMonthGrid(nil, date(2025, time.October, 1, 0, 0))

	require.Len(t, grid, 34)
	for i := 0; i < 3; i++ {
		assert.True(t, grid[i].IsBlank(), "cell %d should be padding", i)
		assert.Nil(t, grid[i].Date)
		assert.Empty(t, grid[i].Events)
	}
	assert.Equal(t, 1, grid[3].Day)
	assert.Equal(t, time.Wednesday, grid[3].Date.Weekday())
	assert.Equal(t, 31, grid[33].Day)
}

func TestBuildMonthGrid_LengthForEveryMonth(t *testing.T) {
	for year := 2023; year <= 2028; year++ {
		for month := time.January; month <= time.December; month++ {
			anchor := time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
			first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			want := int(first.Weekday()) + DaysIn(anchor)

			grid := BuildMonthGrid(nil, anchor)
			assert.Len(t, grid, want, "%d-%02d", year, month)
			assert.Equal(t, DaysIn(anchor), grid[len(grid)-1].Day)
		}
	}
}

func TestBuildMonthGrid_LeapFebruary(t *testing.T) {
	assert.Equal(t, 29, DaysIn(date(2024, time.February, 10, 0, 0)))
	assert.Equal(t, 28, DaysIn(date(2025, time.February, 10, 0, 0)))
}

func TestBuildMonthGrid_OnceEventSingleCell(t *testing.T) {
	e := onceEvent("1", date(2025, time.October, 1, 10, 0))

	october := BuildMonthGrid([]domain.Event{e}, date(2025, time.October, 20, 0, 0))
	assert.Equal(t, []int{1}, cellDays(october, "1"))
	assert.Equal(t, e, october[3].Events[0])

	november := BuildMonthGrid([]domain.Event{e}, date(2025, time.November, 1, 0, 0))
	assert.Empty(t, cellDays(november, "1"))
}

func TestBuildMonthGrid_OnceEventsAlwaysAtMostOneCell(t *testing.T) {
	var events []domain.Event
	start := date(2025, time.September, 20, 8, 30)
	for i := 0; i < 60; i++ {
		events = append(events, onceEvent(string(rune('a'+i%26))+string(rune('A'+i/26)), start.Add(time.Duration(i)*17*time.Hour)))
	}

	for _, anchor := range []time.Time{
		date(2025, time.September, 1, 0, 0),
		date(2025, time.October, 1, 0, 0),
		date(2025, time.November, 1, 0, 0),
	} {
		grid := BuildMonthGrid(events, anchor)
		for _, e := range events {
			days := cellDays(grid, e.ID)
			if e.Start.Month() == anchor.Month() {
				assert.Equal(t, []int{e.Start.Day()}, days, e.ID)
			} else {
				assert.Empty(t, days, e.ID)
			}
		}
	}
}

func TestBuildMonthGrid_PreservesInputOrderWithinCell(t *testing.T) {
	day := date(2025, time.October, 7, 0, 0)
	events := []domain.Event{
		onceEvent("z", day.Add(15*time.Hour)),
		onceEvent("a", day.Add(9*time.Hour)),
		onceEvent("m", day.Add(12*time.Hour)),
	}

	grid := BuildMonthGrid(events, day)
	cell := grid[3+6]
	require.Equal(t, 7, cell.Day)
	require.Len(t, cell.Events, 3)
	assert.Equal(t, "z", cell.Events[0].ID)
	assert.Equal(t, "a", cell.Events[1].ID)
	assert.Equal(t, "m", cell.Events[2].ID)
}

func TestBuildMonthGrid_UsesAnchorLocation(t *testing.T) {
	colombo, err := time.LoadLocation("Asia/Colombo")
	require.NoError(t, err)

	// 20:00 UTC on Oct 31 is 01:30 on Nov 1 in Colombo
	e := onceEvent("late", date(2025, time.October, 31, 20, 0))

	utcGrid := BuildMonthGrid([]domain.Event{e}, date(2025, time.October, 1, 0, 0))
	assert.Equal(t, []int{31}, cellDays(utcGrid, "late"))

	localGrid := BuildMonthGrid([]domain.Event{e}, time.Date(2025, time.November, 1, 0, 0, 0, 0, colombo))
	assert.Equal(t, []int{1}, cellDays(localGrid, "late"))
}

func TestBuildMonthGrid_DailyUntilEndDate(t *testing.T) {
	e := recurring("standup", date(2025, time.October, 27, 9, 0), domain.RepeatDaily, ptr(date(2025, time.November, 3, 0, 0)))

	october := BuildMonthGrid([]domain.Event{e}, date(2025, time.October, 1, 0, 0))
	assert.Equal(t, []int{27, 28, 29, 30, 31}, cellDays(october, "standup"))

	november := BuildMonthGrid([]domain.Event{e}, date(2025, time.November, 1, 0, 0))
	assert.Equal(t, []int{1, 2, 3}, cellDays(november, "standup"))

	december := BuildMonthGrid([]domain.Event{e}, date(2025, time.December, 1, 0, 0))
	assert.Empty(t, cellDays(december, "standup"))
}

func TestBuildMonthGrid_OccurrencesAreShifted(t *testing.T) {
	e := recurring("standup", date(2025, time.October, 27, 9, 0), domain.RepeatDaily, nil)
	e.End = e.Start.Add(15 * time.Minute)

	grid := BuildMonthGrid([]domain.Event{e}, date(2025, time.November, 1, 0, 0))
	first := grid[6].Events[0] // Nov 1 2025 is a Saturday
	assert.Equal(t, "standup", first.ID)
	assert.True(t, first.Start.Equal(date(2025, time.November, 1, 9, 0)), first.Start)
	assert.True(t, first.End.Equal(date(2025, time.November, 1, 9, 15)), first.End)
}

func TestBuildMonthGrid_Weekly(t *testing.T) {
	e := recurring("retro", date(2025, time.September, 30, 14, 0), domain.RepeatWeekly, nil)

	grid := BuildMonthGrid([]domain.Event{e}, date(2025, time.October, 1, 0, 0))
	assert.Equal(t, []int{7, 14, 21, 28}, cellDays(grid, "retro"))
}

func TestBuildMonthGrid_WeeklyKeepsWeekdayAcrossDST(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	july := time.Date(2025, time.July, 1, 0, 0, 0, 0, newYork)

	// Monday Jan 6 23:30 EST, as decoded from a JSON offset and as read back in UTC
	est := time.Date(2025, time.January, 6, 23, 30, 0, 0, time.FixedZone("", -5*60*60))
	starts := map[string]time.Time{"fixed offset": est, "utc": est.UTC()}

	for name, start := range starts {
		t.Run(name, func(t *testing.T) {
			grid := BuildMonthGrid([]domain.Event{recurring("late", start, domain.RepeatWeekly, nil)}, july)
			assert.Equal(t, []int{7, 14, 21, 28}, cellDays(grid, "late"))

			for _, cell := range grid {
				for _, e := range cell.Events {
					local := e.Start.In(newYork)
					assert.Equal(t, time.Monday, local.Weekday(), local)
					assert.Equal(t, 23, local.Hour(), local)
					assert.Equal(t, 30, local.Minute(), local)
				}
			}
		})
	}
}

func TestBuildMonthGrid_DailyAcrossSpringForward(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := time.Date(2025, time.March, 1, 23, 30, 0, 0, newYork).UTC()
	grid := BuildMonthGrid([]domain.Event{recurring("late", start, domain.RepeatDaily, nil)},
		time.Date(2025, time.March, 1, 0, 0, 0, 0, newYork))

	days := cellDays(grid, "late")
	require.Len(t, days, 31)
	for i, d := range days {
		assert.Equal(t, i+1, d)
	}
}

func TestBuildMonthGrid_MonthlyOnThe31stSkipsShortMonths(t *testing.T) {
	e := recurring("payroll", date(2025, time.January, 31, 10, 0), domain.RepeatMonthly, nil)

	assert.Equal(t, []int{31}, cellDays(BuildMonthGrid([]domain.Event{e}, date(2025, time.March, 1, 0, 0)), "payroll"))
	assert.Empty(t, cellDays(BuildMonthGrid([]domain.Event{e}, date(2025, time.April, 1, 0, 0)), "payroll"))
	assert.Empty(t, cellDays(BuildMonthGrid([]domain.Event{e}, date(2025, time.February, 1, 0, 0)), "payroll"))
}

func TestBuildMonthGrid_YearlyLeapDay(t *testing.T) {
	e := recurring("leap", date(2024, time.February, 29, 0, 0), domain.RepeatYearly, nil)
	p := NewProjector(WithHorizon(10 * 365 * 24 * time.Hour))

	assert.Empty(t, cellDays(p.BuildMonthGrid([]domain.Event{e}, date(2025, time.February, 1, 0, 0)), "leap"))
	assert.Equal(t, []int{29}, cellDays(p.BuildMonthGrid([]domain.Event{e}, date(2028, time.February, 1, 0, 0)), "leap"))
}

func TestBuildMonthGrid_OpenEndedBoundedByHorizon(t *testing.T) {
	e := recurring("weekly", date(2025, time.January, 6, 9, 0), domain.RepeatWeekly, nil)
	p := NewProjector(WithHorizon(60 * 24 * time.Hour))

	assert.NotEmpty(t, cellDays(p.BuildMonthGrid([]domain.Event{e}, date(2025, time.February, 1, 0, 0)), "weekly"))
	assert.Empty(t, cellDays(p.BuildMonthGrid([]domain.Event{e}, date(2025, time.June, 1, 0, 0)), "weekly"))
}

func TestBuildMonthGrid_EndDateBeforeStartKeepsFirstOccurrence(t *testing.T) {
	e := recurring("odd", date(2025, time.October, 10, 9, 0), domain.RepeatDaily, ptr(date(2025, time.October, 1, 0, 0)))

	grid := BuildMonthGrid([]domain.Event{e}, date(2025, time.October, 1, 0, 0))
	assert.Equal(t, []int{10}, cellDays(grid, "odd"))
}

func TestBuildMonthGrid_RecurrenceNeverBeforeStart(t *testing.T) {
	e := recurring("new", date(2025, time.October, 15, 9, 0), domain.RepeatDaily, nil)

	grid := BuildMonthGrid([]domain.Event{e}, date(2025, time.October, 1, 0, 0))
	days := cellDays(grid, "new")
	require.Len(t, days, 17)
	assert.Equal(t, 15, days[0])
	assert.Empty(t, cellDays(BuildMonthGrid([]domain.Event{e}, date(2025, time.September, 1, 0, 0)), "new"))
}

func TestBuildMonthGrid_MaxOccurrencesCap(t *testing.T) {
	e := recurring("daily", date(2025, time.October, 1, 9, 0), domain.RepeatDaily, nil)
	p := NewProjector(WithMaxOccurrences(5))

	grid := p.BuildMonthGrid([]domain.Event{e}, date(2025, time.October, 1, 0, 0))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, cellDays(grid, "daily"))
}

func TestBuildMonthGrid_SkipsMalformedEvents(t *testing.T) {
	valid := onceEvent("ok", date(2025, time.October, 2, 9, 0))
	zeroStart := onceEvent("zero", time.Time{})
	badRepeat := onceEvent("bad", date(2025, time.October, 3, 9, 0))
	badRepeat.Repeat = "fortnightly"
	blankRepeat := onceEvent("blank", date(2025, time.October, 4, 9, 0))
	blankRepeat.Repeat = ""

	grid := BuildMonthGrid([]domain.Event{zeroStart, badRepeat, valid, blankRepeat}, date(2025, time.October, 1, 0, 0))

	assert.Equal(t, []int{2}, cellDays(grid, "ok"))
	assert.Equal(t, []int{4}, cellDays(grid, "blank"))
	assert.Empty(t, cellDays(grid, "zero"))
	assert.Empty(t, cellDays(grid, "bad"))
}

func TestBuildMonthGrid_Idempotent(t *testing.T) {
	events := []domain.Event{
		onceEvent("1", date(2025, time.October, 1, 10, 0)),
		recurring("2", date(2025, time.September, 3, 8, 0), domain.RepeatWeekly, nil),
		recurring("3", date(2024, time.October, 12, 8, 0), domain.RepeatYearly, nil),
	}
	anchor := date(2025, time.October, 9, 0, 0)

	assert.Equal(t, BuildMonthGrid(events, anchor), BuildMonthGrid(events, anchor))
}

func TestBuildMonthGrid_DoesNotMutateInput(t *testing.T) {
	events := []domain.Event{recurring("d", date(2025, time.October, 1, 9, 0), domain.RepeatDaily, nil)}
	before := events[0]

	BuildMonthGrid(events, date(2025, time.October, 1, 0, 0))
	assert.Equal(t, before, events[0])
}
