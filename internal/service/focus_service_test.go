package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/internal/dto"
	"github.com/workpulse/work-pulse/internal/repository"
	"github.com/workpulse/work-pulse/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFocusFixture() (*focusService, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC)}
	svc := NewFocusService(repository.NewMemoryFocusStore(0), FocusLimits{}, logger.NewNop()).(*focusService)
	svc.now = clock.Now
	return svc, clock
}

func TestFocusService_StartUsesDefaultsAndRejectsSecondSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFocusFixture()

	session, err := svc.Start(ctx, "t1", "u1", &dto.StartFocusRequest{Label: "Deep work"})
	require.NoError(t, err)
	assert.Equal(t, domain.FocusRunning, session.State)
	assert.Equal(t, 25*time.Minute, session.Duration)
	assert.Equal(t, int64(1), session.Version)

	_, err = svc.Start(ctx, "t1", "u1", &dto.StartFocusRequest{})
	assert.ErrorIs(t, err, ErrSessionActive)

	// other users are independent
	_, err = svc.Start(ctx, "t1", "u2", &dto.StartFocusRequest{Minutes: 50})
	require.NoError(t, err)

	_, err = svc.Start(ctx, "t1", "u3", &dto.StartFocusRequest{Minutes: 300})
	var verrs dto.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestFocusService_PauseResumeComplete(t *testing.T) {
	ctx := context.Background()
	svc, clock := newFocusFixture()

	_, err := svc.Start(ctx, "t1", "u1", &dto.StartFocusRequest{Minutes: 30})
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	paused, err := svc.Pause(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.FocusPaused, paused.State)
	assert.Equal(t, 20*time.Minute, paused.Remaining(clock.Now()))

	_, err = svc.Pause(ctx, "t1", "u1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	clock.Advance(time.Hour)
	resumed, err := svc.Resume(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.FocusRunning, resumed.State)
	assert.Equal(t, 20*time.Minute, resumed.Remaining(clock.Now()))

	clock.Advance(5 * time.Minute)
	done, err := svc.Complete(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.FocusCompleted, done.State)
	assert.Equal(t, 15*time.Minute, done.Elapsed)

	_, err = svc.Cancel(ctx, "t1", "u1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// a finished session frees the slot
	next, err := svc.Start(ctx, "t1", "u1", &dto.StartFocusRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, done.ID, next.ID)
}

func TestFocusService_CurrentCompletesExpiredSession(t *testing.T) {
	ctx := context.Background()
	svc, clock := newFocusFixture()
	started := clock.Now()

	_, err := svc.Current(ctx, "t1", "u1")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = svc.Start(ctx, "t1", "u1", &dto.StartFocusRequest{Minutes: 25})
	require.NoError(t, err)

	clock.Advance(40 * time.Minute)
	current, err := svc.Current(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.FocusCompleted, current.State)
	require.NotNil(t, current.CompletedAt)
	assert.Equal(t, started.Add(25*time.Minute), *current.CompletedAt)

	stored, err := svc.store.Get(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.FocusCompleted, stored.State)
}

func TestFocusService_PauseAfterExpiryPersistsCompletion(t *testing.T) {
	ctx := context.Background()
	svc, clock := newFocusFixture()

	_, err := svc.Start(ctx, "t1", "u1", &dto.StartFocusRequest{Minutes: 5})
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)

	_, err = svc.Pause(ctx, "t1", "u1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := svc.store.Get(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.FocusCompleted, stored.State)
}

func TestFocusService_TransitionWithoutSession(t *testing.T) {
	svc, _ := newFocusFixture()
	_, err := svc.Cancel(context.Background(), "t1", "nobody")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

type conflictingStore struct {
	repository.FocusStore
}

func (conflictingStore) Save(ctx context.Context, session *domain.FocusSession, expectedVersion int64) error {
	return repository.ErrVersionConflict
}

func TestFocusService_TransitionGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	inner := repository.NewMemoryFocusStore(0)
	require.NoError(t, inner.Save(ctx, &domain.FocusSession{
		ID: "s1", TenantID: "t1", UserID: "u1", State: domain.FocusRunning,
		Duration: time.Hour, StartedAt: time.Now(), Version: 1,
	}, 0))

	svc := NewFocusService(conflictingStore{inner}, FocusLimits{}, logger.NewNop())
	_, err := svc.Pause(ctx, "t1", "u1")
	assert.ErrorIs(t, err, ErrFocusConflict)
}
