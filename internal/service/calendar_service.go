package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/calendar"
	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/internal/ics"
	"github.com/workpulse/work-pulse/internal/repository"
	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/telemetry"
)

const defaultExportName = "Work Pulse"

// calendarMetrics are nil when the meter could not create them
type calendarMetrics struct {
	cacheLookups *telemetry.Counter
	buildLatency *telemetry.Histogram
}

func newCalendarMetrics(log *logger.Logger) calendarMetrics {
	var m calendarMetrics
	var err error

	m.cacheLookups, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "calendar_grid_cache_lookups_total",
		Description: "Month grid cache lookups by result",
		Unit:        "1",
	})
	if err != nil {
		log.Warn("failed to create cache lookup counter", zap.Error(err))
	}

	m.buildLatency, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "calendar_grid_build_duration_ms",
		Description: "Time spent projecting a month grid",
		Unit:        "ms",
	}, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250)
	if err != nil {
		log.Warn("failed to create grid build histogram", zap.Error(err))
	}
	return m
}

// calendarService implements CalendarService
type calendarService struct {
	eventRepo  repository.EventRepository
	tenantRepo repository.TenantRepository
	versions   repository.VersionStore
	cache      *calendar.GridCache
	projector  *calendar.Projector
	defaultLoc *time.Location
	log        *logger.Logger
	metrics    calendarMetrics
	now        Clock
}

// NewCalendarService creates a new CalendarService. cache may be nil to disable memoisation.
func NewCalendarService(
	eventRepo repository.EventRepository,
	tenantRepo repository.TenantRepository,
	versions repository.VersionStore,
	cache *calendar.GridCache,
	projector *calendar.Projector,
	defaultLoc *time.Location,
	log *logger.Logger,
) CalendarService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	log = log.Named("calendar-service")
	return &calendarService{
		eventRepo:  eventRepo,
		tenantRepo: tenantRepo,
		versions:   versions,
		cache:      cache,
		projector:  projector,
		defaultLoc: defaultLoc,
		log:        log,
		metrics:    newCalendarMetrics(log),
		now:        time.Now,
	}
}

// Grid returns the month grid containing anchor, served from cache when the tenant's
// events have not changed since it was built
func (s *calendarService) Grid(ctx context.Context, tenantID string, anchor time.Time) ([]calendar.Day, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.grid")
	defer span.End()

	month := anchor.Format("2006-01")
	telemetry.SetSpanAttributes(ctx, telemetry.TenantIDAttr(tenantID), telemetry.MonthAttr(month))

	version, err := s.versions.Current(ctx, tenantID)
	if err != nil {
		// a stale version could serve an outdated grid, so skip the cache entirely
		s.log.WithContext(ctx).Warn("failed to read calendar version, bypassing cache",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return s.build(ctx, tenantID, anchor)
	}

	key := calendar.NewGridKey(tenantID, version.Epoch, version.Seq, anchor)
	if s.cache != nil {
		grid, ok := s.cache.Get(key)
		s.recordLookup(ctx, tenantID, ok)
		if ok {
			return grid, nil
		}
	}

	grid, err := s.build(ctx, tenantID, anchor)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, grid)
	}
	return grid, nil
}

func (s *calendarService) build(ctx context.Context, tenantID string, anchor time.Time) ([]calendar.Day, error) {
	events, err := s.loadEvents(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	grid := s.projector.BuildMonthGrid(events, anchor)
	if s.metrics.buildLatency != nil {
		s.metrics.buildLatency.Record(ctx, float64(time.Since(started).Microseconds())/1000,
			telemetry.TenantIDAttr(tenantID))
	}
	return grid, nil
}

func (s *calendarService) recordLookup(ctx context.Context, tenantID string, hit bool) {
	if s.metrics.cacheLookups != nil {
		s.metrics.cacheLookups.Inc(ctx, telemetry.TenantIDAttr(tenantID), telemetry.CacheResultAttr(hit))
	}
}

// Upcoming returns one page of events starting at or after now
func (s *calendarService) Upcoming(ctx context.Context, tenantID string, now time.Time, search string, page, pageSize int) (*calendar.UpcomingPage, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.upcoming")
	defer span.End()

	events, err := s.loadEvents(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.projector.ListUpcoming(events, now, search, page, pageSize)
}

// Export returns the tenant's events as an iCalendar document
func (s *calendarService) Export(ctx context.Context, tenantID string) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.export")
	defer span.End()

	events, err := s.loadEvents(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	name := defaultExportName
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant != nil && tenant.Name != "" {
		name = tenant.Name
	}

	var buf bytes.Buffer
	if err := ics.Write(&buf, name, events, s.now().UTC()); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// Location returns the tenant's configured time zone. Tenants without a usable
// timezone setting get the service default.
func (s *calendarService) Location(ctx context.Context, tenantID string) (*time.Location, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant == nil || tenant.Timezone() == "" {
		return s.defaultLoc, nil
	}

	loc, err := time.LoadLocation(tenant.Timezone())
	if err != nil {
		s.log.WithContext(ctx).Warn("tenant has an unknown timezone",
			zap.String("tenant_id", tenantID),
			zap.String("timezone", tenant.Timezone()),
		)
		return s.defaultLoc, nil
	}
	return loc, nil
}

// Warm precomputes the grids of the given months
func (s *calendarService) Warm(ctx context.Context, tenantID string, anchors ...time.Time) error {
	for _, anchor := range anchors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.Grid(ctx, tenantID, anchor); err != nil {
			return fmt.Errorf("failed to warm %s: %w", anchor.Format("2006-01"), err)
		}
	}
	return nil
}

func (s *calendarService) loadEvents(ctx context.Context, tenantID string) ([]domain.Event, error) {
	stored, err := s.eventRepo.ListAll(ctx, tenantID)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	events := make([]domain.Event, 0, len(stored))
	for _, e := range stored {
		events = append(events, *e)
	}
	return events, nil
}
