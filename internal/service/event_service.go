package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/internal/dto"
	"github.com/workpulse/work-pulse/internal/events"
	"github.com/workpulse/work-pulse/internal/repository"
	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/telemetry"
)

// eventService implements EventService
type eventService struct {
	eventRepo repository.EventRepository
	versions  repository.VersionStore
	publisher events.Publisher
	log       *logger.Logger
	now       Clock
}

// NewEventService creates a new EventService
func NewEventService(
	eventRepo repository.EventRepository,
	versions repository.VersionStore,
	publisher events.Publisher,
	log *logger.Logger,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		versions:  versions,
		publisher: publisher,
		log:       log.Named("event-service"),
		now:       time.Now,
	}
}

// Create validates and stores a new event
func (s *eventService) Create(ctx context.Context, tenantID string, req *dto.CreateEventRequest) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	req.SetDefaults()
	if errs := req.Validate(); len(errs) > 0 {
		return nil, errs
	}

	now := s.now()
	event := &domain.Event{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		Title:         req.Title,
		Description:   req.Description,
		Start:         req.Start,
		End:           req.End,
		Location:      req.Location,
		Type:          req.Type,
		Repeat:        req.Repeat,
		RepeatEndDate: req.RepeatEndDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	s.changed(ctx, domain.EventCreated, event)
	return event, nil
}

// Get retrieves an event by ID
func (s *eventService) Get(ctx context.Context, tenantID, id string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// List retrieves stored events with pagination and title search
func (s *eventService) List(ctx context.Context, tenantID string, query *dto.ListEventsQuery) (*dto.ListEventsResponse, error) {
	query.SetDefaults()

	stored, totalCount, err := s.eventRepo.List(ctx, tenantID, query.Page, query.Limit, query.Search)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.EventResponse, 0, len(stored))
	for _, e := range stored {
		responses = append(responses, dto.ToEventResponse(e))
	}

	return &dto.ListEventsResponse{
		Events:     responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(query.Limit))),
	}, nil
}

// Update applies a partial update and revalidates the merged event
func (s *eventService) Update(ctx context.Context, tenantID, id string, req *dto.UpdateEventRequest) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.update")
	defer span.End()

	if req.IsEmpty() {
		var errs dto.ValidationErrors
		errs.Add("body", "at least one field must be provided for update")
		return nil, errs
	}

	event, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	req.Apply(event)
	if errs := dto.ValidateEvent(event); len(errs) > 0 {
		return nil, errs
	}
	event.UpdatedAt = s.now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	s.changed(ctx, domain.EventUpdated, event)
	return event, nil
}

// Delete soft deletes an event
func (s *eventService) Delete(ctx context.Context, tenantID, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.delete")
	defer span.End()

	event, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.eventRepo.SoftDelete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		telemetry.SetSpanError(ctx, err)
		return err
	}

	s.changed(ctx, domain.EventDeleted, event)
	return nil
}

// changed bumps the tenant's calendar version and announces the write.
// Neither step fails the write: a missed bump only delays cache refresh until the next one.
func (s *eventService) changed(ctx context.Context, kind domain.EventChangeType, event *domain.Event) {
	log := s.log.WithContext(ctx).WithFields(
		zap.String("tenant_id", event.TenantID),
		zap.String("event_id", event.ID),
	)

	version, err := s.versions.Bump(ctx, event.TenantID)
	if err != nil {
		log.Error("failed to bump calendar version", zap.Error(err))
	}

	change := domain.EventChange{
		Type:       kind,
		TenantID:   event.TenantID,
		EventID:    event.ID,
		Version:    version.Seq,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, change); err != nil {
		log.Warn("failed to publish calendar change",
			zap.String("type", string(kind)),
			zap.Error(fmt.Errorf("publish: %w", err)),
		)
	}
}
