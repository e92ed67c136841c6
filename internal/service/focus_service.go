package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/internal/dto"
	"github.com/workpulse/work-pulse/internal/repository"
	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/telemetry"
)

// ErrFocusConflict is returned when a session keeps changing underneath a transition
var ErrFocusConflict = errors.New("focus session was modified concurrently")

const maxFocusSaveAttempts = 3

// FocusLimits bounds requested session durations
type FocusLimits struct {
	DefaultDuration time.Duration
	MaxDuration     time.Duration
}

// focusService implements FocusService
type focusService struct {
	store       repository.FocusStore
	limits      FocusLimits
	log         *logger.Logger
	transitions *telemetry.Counter
	now         Clock
}

// NewFocusService creates a new FocusService
func NewFocusService(store repository.FocusStore, limits FocusLimits, log *logger.Logger) FocusService {
	if limits.DefaultDuration <= 0 {
		limits.DefaultDuration = 25 * time.Minute
	}
	if limits.MaxDuration <= 0 {
		limits.MaxDuration = 4 * time.Hour
	}

	log = log.Named("focus-service")
	transitions, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "focus_session_transitions_total",
		Description: "Focus session state changes by target state",
		Unit:        "1",
	})
	if err != nil {
		log.Warn("failed to create focus transition counter", zap.Error(err))
	}

	return &focusService{
		store:       store,
		limits:      limits,
		log:         log,
		transitions: transitions,
		now:         time.Now,
	}
}

// Start begins a new session unless a running or paused one exists
func (s *focusService) Start(ctx context.Context, tenantID, userID string, req *dto.StartFocusRequest) (*domain.FocusSession, error) {
	if errs := req.Validate(s.limits.MaxDuration); len(errs) > 0 {
		return nil, errs
	}

	duration := s.limits.DefaultDuration
	if req.Minutes > 0 {
		duration = time.Duration(req.Minutes) * time.Minute
	}

	now := s.now()
	existing, err := s.store.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	var expected int64
	if existing != nil {
		expected = existing.Version
		settleExpired(existing, now)
		if !existing.State.IsTerminal() {
			return nil, ErrSessionActive
		}
	}

	session := &domain.FocusSession{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    userID,
		Label:     req.Label,
		State:     domain.FocusRunning,
		Duration:  duration,
		StartedAt: now,
		UpdatedAt: now,
		Version:   expected + 1,
	}

	if err := s.store.Save(ctx, session, expected); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// another start or transition landed first
			return nil, ErrSessionActive
		}
		return nil, err
	}

	s.record(ctx, tenantID, domain.FocusRunning)
	return session, nil
}

// Current returns the latest session, completing it when its time has run out
func (s *focusService) Current(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error) {
	session, err := s.store.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	expected := session.Version
	if !settleExpired(session, s.now()) {
		return session, nil
	}

	if err := s.store.Save(ctx, session, expected); err != nil {
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		// someone else moved it on; their write wins
		return s.store.Get(ctx, tenantID, userID)
	}

	s.record(ctx, tenantID, domain.FocusCompleted)
	return session, nil
}

// Pause pauses the running session
func (s *focusService) Pause(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error) {
	return s.transition(ctx, tenantID, userID, domain.FocusPaused)
}

// Resume resumes the paused session
func (s *focusService) Resume(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error) {
	return s.transition(ctx, tenantID, userID, domain.FocusRunning)
}

// Complete finishes the session early
func (s *focusService) Complete(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error) {
	return s.transition(ctx, tenantID, userID, domain.FocusCompleted)
}

// Cancel abandons the session
func (s *focusService) Cancel(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error) {
	return s.transition(ctx, tenantID, userID, domain.FocusCancelled)
}

func (s *focusService) transition(ctx context.Context, tenantID, userID string, target domain.FocusState) (*domain.FocusSession, error) {
	for attempt := 1; attempt <= maxFocusSaveAttempts; attempt++ {
		session, err := s.store.Get(ctx, tenantID, userID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrNoActiveSession
		}

		now := s.now()
		expected := session.Version
		settled := settleExpired(session, now)

		if err := session.Transition(target, now); err != nil {
			if settled {
				if saveErr := s.store.Save(ctx, session, expected); saveErr == nil {
					s.record(ctx, tenantID, domain.FocusCompleted)
				}
			}
			return nil, err
		}

		err = s.store.Save(ctx, session, expected)
		if err == nil {
			s.record(ctx, tenantID, target)
			return session, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}

		s.log.WithContext(ctx).Debug("focus session changed during transition, retrying",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", userID),
			zap.Int("attempt", attempt),
		)
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrFocusConflict, maxFocusSaveAttempts)
}

func (s *focusService) record(ctx context.Context, tenantID string, state domain.FocusState) {
	if s.transitions != nil {
		s.transitions.Inc(ctx, telemetry.TenantIDAttr(tenantID), telemetry.FocusStateAttr(string(state)))
	}
}

// settleExpired completes a running session whose time ran out, stamped at the moment
// it did. It reports whether the session changed.
func settleExpired(session *domain.FocusSession, now time.Time) bool {
	if session.State != domain.FocusRunning || session.Remaining(now) > 0 {
		return false
	}
	endedAt := session.StartedAt.Add(session.Duration - session.Elapsed)
	return session.Transition(domain.FocusCompleted, endedAt) == nil
}
