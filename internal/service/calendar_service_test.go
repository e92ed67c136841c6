package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse/work-pulse/internal/calendar"
	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/internal/repository"
	"github.com/workpulse/work-pulse/pkg/logger"
)

type failingVersionStore struct{}

func (failingVersionStore) Current(ctx context.Context, tenantID string) (repository.Version, error) {
	return repository.Version{}, errors.New("redis unavailable")
}

func (failingVersionStore) Bump(ctx context.Context, tenantID string) (repository.Version, error) {
	return repository.Version{}, errors.New("redis unavailable")
}

// resettableVersionStore loses every counter on reset, like a Redis flush
type resettableVersionStore struct {
	*repository.MemoryVersionStore
}

func (s *resettableVersionStore) reset() {
	s.MemoryVersionStore = repository.NewMemoryVersionStore()
}

type calendarFixture struct {
	svc      CalendarService
	events   *repository.MemoryEventRepository
	tenants  *repository.MemoryTenantRepository
	versions repository.VersionStore
	cache    *calendar.GridCache
}

func newCalendarFixture(t *testing.T, versions repository.VersionStore) *calendarFixture {
	t.Helper()
	cache, err := calendar.NewGridCache(16)
	require.NoError(t, err)

	f := &calendarFixture{
		events:   repository.NewMemoryEventRepository(),
		tenants:  repository.NewMemoryTenantRepository(),
		versions: versions,
		cache:    cache,
	}
	f.svc = NewCalendarService(f.events, f.tenants, versions, cache, calendar.NewProjector(), time.UTC, logger.NewNop())
	return f
}

func (f *calendarFixture) add(t *testing.T, id, title string, start time.Time, repeat domain.RepeatRule) {
	t.Helper()
	require.NoError(t, f.events.Create(context.Background(), &domain.Event{
		ID:       id,
		TenantID: "t1",
		Title:    title,
		Start:    start,
		End:      start.Add(time.Hour),
		Type:     domain.EventTypeMeeting,
		Repeat:   repeat,
	}))
}

func eventIDs(grid []calendar.Day) []string {
	var ids []string
	for _, d := range grid {
		for _, e := range d.Events {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func TestCalendarService_GridIsCachedPerVersion(t *testing.T) {
	ctx := context.Background()
	versions := repository.NewMemoryVersionStore()
	f := newCalendarFixture(t, versions)
	anchor := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	f.add(t, "e1", "Kickoff", time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC), domain.RepeatOnce)

	grid, err := f.svc.Grid(ctx, "t1", anchor)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, eventIDs(grid))
	assert.Equal(t, 1, f.cache.Len())

	// written behind the service's back: same version, cached grid is served
	f.add(t, "e2", "Retro", time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC), domain.RepeatOnce)
	grid, err = f.svc.Grid(ctx, "t1", anchor)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, eventIDs(grid))

	_, err = versions.Bump(ctx, "t1")
	require.NoError(t, err)
	grid, err = f.svc.Grid(ctx, "t1", anchor)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, eventIDs(grid))
	assert.Equal(t, 2, f.cache.Len())
}

func TestCalendarService_GridMissesAfterVersionStoreReset(t *testing.T) {
	ctx := context.Background()
	versions := &resettableVersionStore{repository.NewMemoryVersionStore()}
	f := newCalendarFixture(t, versions)
	anchor := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	f.add(t, "e1", "Kickoff", time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC), domain.RepeatOnce)
	for i := 0; i < 3; i++ {
		_, err := versions.Bump(ctx, "t1")
		require.NoError(t, err)
	}
	grid, err := f.svc.Grid(ctx, "t1", anchor)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, eventIDs(grid))

	// the counter restarts and climbs back to the cached sequence number
	versions.reset()
	f.add(t, "e2", "Retro", time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC), domain.RepeatOnce)
	for i := 0; i < 3; i++ {
		_, err := versions.Bump(ctx, "t1")
		require.NoError(t, err)
	}

	grid, err = f.svc.Grid(ctx, "t1", anchor)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, eventIDs(grid))
}

func TestCalendarService_GridBypassesCacheWhenVersionUnavailable(t *testing.T) {
	f := newCalendarFixture(t, failingVersionStore{})
	f.add(t, "e1", "Kickoff", time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC), domain.RepeatOnce)

	grid, err := f.svc.Grid(context.Background(), "t1", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, eventIDs(grid))
	assert.Zero(t, f.cache.Len())
}

func TestCalendarService_Upcoming(t *testing.T) {
	f := newCalendarFixture(t, repository.NewMemoryVersionStore())
	now := time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)

	f.add(t, "past", "Standup", now.Add(-time.Hour), domain.RepeatOnce)
	f.add(t, "soon", "Standup", now.Add(time.Hour), domain.RepeatOnce)
	f.add(t, "later", "Review", now.Add(48*time.Hour), domain.RepeatOnce)

	page, err := f.svc.Upcoming(context.Background(), "t1", now, "STAND", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "soon", page.Items[0].ID)
	assert.Equal(t, 1, page.TotalItems)

	_, err = f.svc.Upcoming(context.Background(), "t1", now, "", 0, 10)
	assert.ErrorIs(t, err, calendar.ErrInvalidArgument)
}

func TestCalendarService_Location(t *testing.T) {
	ctx := context.Background()
	f := newCalendarFixture(t, repository.NewMemoryVersionStore())
	require.NoError(t, f.tenants.Create(ctx, &domain.Tenant{ID: "colombo", Settings: map[string]any{"timezone": "Asia/Colombo"}}))
	require.NoError(t, f.tenants.Create(ctx, &domain.Tenant{ID: "broken", Settings: map[string]any{"timezone": "Mars/Base"}}))

	loc, err := f.svc.Location(ctx, "colombo")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Colombo", loc.String())

	for _, id := range []string{"broken", "unknown"} {
		loc, err = f.svc.Location(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, loc, id)
	}
}

func TestCalendarService_Export(t *testing.T) {
	ctx := context.Background()
	f := newCalendarFixture(t, repository.NewMemoryVersionStore())
	require.NoError(t, f.tenants.Create(ctx, &domain.Tenant{ID: "t1", Name: "Acme"}))
	f.add(t, "e1", "Standup", time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC), domain.RepeatDaily)

	body, err := f.svc.Export(ctx, "t1")
	require.NoError(t, err)

	cal, err := ical.NewDecoder(bytes.NewReader(body)).Decode()
	require.NoError(t, err)
	name, err := cal.Props.Text(ical.PropName)
	require.NoError(t, err)
	assert.Equal(t, "Acme", name)

	events := cal.Events()
	require.Len(t, events, 1)
	rule := events[0].Props.Get(ical.PropRecurrenceRule)
	require.NotNil(t, rule)
	assert.Contains(t, rule.Value, "FREQ=DAILY")
}

func TestCalendarService_Warm(t *testing.T) {
	f := newCalendarFixture(t, repository.NewMemoryVersionStore())
	oct := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.svc.Warm(context.Background(), "t1", oct, oct.AddDate(0, 1, 0)))
	assert.Equal(t, 2, f.cache.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.svc.Warm(ctx, "t1", oct.AddDate(0, 2, 0)), context.Canceled)
}
