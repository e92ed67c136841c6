package calendar

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse/work-pulse/internal/domain"
)

func titled(id, title string, start time.Time) domain.Event {
	e := onceEvent(id, start)
	e.Title = title
	return e
}

func TestListUpcoming_FiltersPast(t *testing.T) {
	now := date(2025, time.October, 2, 0, 0)
	events := []domain.Event{
		onceEvent("past", date(2025, time.October, 1, 0, 0)),
		onceEvent("future", date(2025, time.October, 5, 0, 0)),
		onceEvent("exactly-now", now),
	}

	page, err := ListUpcoming(events, now, "", 1, 10)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "exactly-now", page.Items[0].ID)
	assert.Equal(t, "future", page.Items[1].ID)
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
}

func TestListUpcoming_CaseInsensitiveSearch(t *testing.T) {
	now := date(2025, time.October, 1, 0, 0)
	events := []domain.Event{
		titled("1", "Code Review", date(2025, time.October, 3, 10, 0)),
		titled("2", "Team Lunch", date(2025, time.October, 3, 12, 0)),
		titled("3", "REVIEW backlog", date(2025, time.October, 4, 12, 0)),
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"review", []string{"1", "3"}},
		{"ReViEw", []string{"1", "3"}},
		{"lunch", []string{"2"}},
		{"", []string{"1", "2", "3"}},
		{"standup", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			page, err := ListUpcoming(events, now, tt.query, 1, 10)
			require.NoError(t, err)

			ids := []string{}
			for _, e := range page.Items {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestListUpcoming_SortedByStartThenID(t *testing.T) {
	now := date(2025, time.October, 1, 0, 0)
	same := date(2025, time.October, 8, 9, 0)
	events := []domain.Event{
		onceEvent("c", same),
		onceEvent("late", date(2025, time.October, 20, 9, 0)),
		onceEvent("a", same),
		onceEvent("early", date(2025, time.October, 2, 9, 0)),
		onceEvent("b", same),
	}

	page, err := ListUpcoming(events, now, "", 1, 10)
	require.NoError(t, err)

	var ids []string
	for _, e := range page.Items {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"early", "a", "b", "c", "late"}, ids)
}

func TestListUpcoming_Pagination(t *testing.T) {
	now := date(2025, time.October, 1, 0, 0)
	var events []domain.Event
	for i := 0; i < 10; i++ {
		events = append(events, onceEvent(fmt.Sprintf("e%02d", i), now.Add(time.Duration(10-i)*time.Hour)))
	}

	first, err := ListUpcoming(events, now, "", 1, 7)
	require.NoError(t, err)
	assert.Len(t, first.Items, 7)
	assert.Equal(t, 2, first.TotalPages)
	assert.Equal(t, 10, first.TotalItems)

	second, err := ListUpcoming(events, now, "", 2, 7)
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)

	third, err := ListUpcoming(events, now, "", 3, 7)
	require.NoError(t, err)
	assert.Empty(t, third.Items)
	assert.NotNil(t, third.Items)
	assert.Equal(t, 2, third.TotalPages)
}

func TestListUpcoming_PagesReproduceFullSet(t *testing.T) {
	now := date(2025, time.October, 1, 0, 0)
	var events []domain.Event
	for i := 0; i < 23; i++ {
		// every third event shares a start to exercise the tie-break
		events = append(events, onceEvent(fmt.Sprintf("id-%02d", (i*7)%23), now.Add(time.Duration(i/3)*time.Hour)))
	}
	events = append(events, onceEvent("past", now.Add(-time.Minute)))

	full, err := ListUpcoming(events, now, "", 1, 100)
	require.NoError(t, err)
	require.Len(t, full.Items, 23)

	for _, size := range []int{1, 4, 5, 23, 50} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			var all []domain.Event
			first, err := ListUpcoming(events, now, "", 1, size)
			require.NoError(t, err)

			for p := 1; p <= first.TotalPages; p++ {
				page, err := ListUpcoming(events, now, "", p, size)
				require.NoError(t, err)
				all = append(all, page.Items...)
			}
			assert.Equal(t, full.Items, all)
		})
	}
}

func TestListUpcoming_InvalidArguments(t *testing.T) {
	events := []domain.Event{onceEvent("1", date(2025, time.October, 5, 0, 0))}
	now := date(2025, time.October, 1, 0, 0)

	tests := []struct {
		name     string
		page     int
		pageSize int
	}{
		{"zero page size", 1, 0},
		{"negative page size", 1, -3},
		{"zero page", 0, 10},
		{"negative page", -1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ListUpcoming(events, now, "", tt.page, tt.pageSize)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, page)
		})
	}
}

func TestListUpcoming_EmptyInput(t *testing.T) {
	page, err := ListUpcoming(nil, date(2025, time.October, 1, 0, 0), "anything", 1, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalItems)
	assert.Equal(t, 0, page.TotalPages)
}

func TestListUpcoming_IdempotentAndInputUntouched(t *testing.T) {
	now := date(2025, time.October, 1, 0, 0)
	events := []domain.Event{
		onceEvent("b", date(2025, time.October, 9, 0, 0)),
		onceEvent("a", date(2025, time.October, 3, 0, 0)),
	}
	snapshot := append([]domain.Event(nil), events...)

	first, err := ListUpcoming(events, now, "", 1, 10)
	require.NoError(t, err)
	second, err := ListUpcoming(events, now, "", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, events)
}
