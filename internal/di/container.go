package di

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/calendar"
	"github.com/workpulse/work-pulse/internal/events"
	"github.com/workpulse/work-pulse/internal/handler"
	"github.com/workpulse/work-pulse/internal/repository"
	"github.com/workpulse/work-pulse/internal/service"
	"github.com/workpulse/work-pulse/internal/worker"
	"github.com/workpulse/work-pulse/pkg/config"
	"github.com/workpulse/work-pulse/pkg/database"
	"github.com/workpulse/work-pulse/pkg/kafka"
	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/middleware"
	"github.com/workpulse/work-pulse/pkg/redis"
)

// Container holds all dependencies for the work-pulse service
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	// Infrastructure, nil when running in memory
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer

	// Repositories and stores
	EventRepo  repository.EventRepository
	TenantRepo repository.TenantRepository
	Versions   repository.VersionStore
	FocusStore repository.FocusStore
	Publisher  events.Publisher

	// Projection
	Projector *calendar.Projector
	GridCache *calendar.GridCache

	// Services
	EventService    service.EventService
	CalendarService service.CalendarService
	TenantService   service.TenantService
	FocusService    service.FocusService

	// Handlers
	Handlers *handler.Handlers

	// Background
	Audit  *middleware.AuditLogger
	Warmer *worker.GridWarmer
}

// ContainerConfig contains configuration for building the container. Nil infrastructure
// falls back to in-memory implementations.
type ContainerConfig struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *ContainerConfig) (*Container, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	appCfg := cfg.Config

	c := &Container{
		Config:   appCfg,
		Logger:   log,
		DB:       cfg.DB,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
	}

	if err := c.initStores(ctx); err != nil {
		return nil, err
	}

	// Initialize projection
	c.Projector = calendar.NewProjector(
		calendar.WithHorizon(appCfg.Calendar.RecurrenceHorizon),
		calendar.WithMaxOccurrences(appCfg.Calendar.MaxOccurrences),
		calendar.WithLogger(log),
	)
	cache, err := calendar.NewGridCache(appCfg.Calendar.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid cache: %w", err)
	}
	c.GridCache = cache

	// Initialize services
	c.EventService = service.NewEventService(c.EventRepo, c.Versions, c.Publisher, log)
	c.CalendarService = service.NewCalendarService(
		c.EventRepo,
		c.TenantRepo,
		c.Versions,
		c.GridCache,
		c.Projector,
		appCfg.Calendar.Location(),
		log,
	)
	c.TenantService = service.NewTenantService(c.TenantRepo)
	c.FocusService = service.NewFocusService(c.FocusStore, service.FocusLimits{
		DefaultDuration: appCfg.Focus.DefaultDuration,
		MaxDuration:     appCfg.Focus.MaxDuration,
	}, log)

	// Initialize handlers
	c.Handlers = &handler.Handlers{
		Health:   handler.NewHealthHandler(appCfg.App.Name, c.readinessChecks(), log),
		Event:    handler.NewEventHandler(c.EventService, log),
		Calendar: handler.NewCalendarHandler(c.CalendarService, log),
		Tenant:   handler.NewTenantHandler(c.TenantService, log),
		Focus:    handler.NewFocusHandler(c.FocusService, log),
	}

	// Initialize background workers
	if appCfg.Audit.Enabled && c.DB != nil {
		auditCfg := middleware.DefaultAuditConfig(middleware.NewPostgresAuditSink(c.DB.Pool()))
		auditCfg.BufferSize = appCfg.Audit.BufferSize
		auditCfg.BatchSize = appCfg.Audit.BatchSize
		auditCfg.FlushInterval = appCfg.Audit.FlushInterval
		auditCfg.Logger = log
		c.Audit = middleware.NewAuditLogger(auditCfg)
	}

	warmerCfg := worker.DefaultGridWarmerConfig()
	if appCfg.Calendar.WarmSchedule != "" {
		warmerCfg.Schedule = appCfg.Calendar.WarmSchedule
	}
	c.Warmer = worker.NewGridWarmer(c.TenantRepo, c.CalendarService, warmerCfg, log)

	return c, nil
}

func (c *Container) initStores(ctx context.Context) error {
	if c.DB != nil {
		c.EventRepo = repository.NewPostgresEventRepository(c.DB.Pool())
		c.TenantRepo = repository.NewPostgresTenantRepository(c.DB.Pool())
	} else {
		c.Logger.Warn("no database configured, using in-memory repositories")
		c.EventRepo = repository.NewMemoryEventRepository()
		c.TenantRepo = repository.NewMemoryTenantRepository()
	}

	if c.Redis != nil {
		versions, err := repository.NewRedisVersionStore(ctx, c.Redis)
		if err != nil {
			return fmt.Errorf("failed to create version store: %w", err)
		}
		c.Versions = versions
		store, err := repository.NewRedisFocusStore(ctx, c.Redis, c.Config.Focus.SessionTTL)
		if err != nil {
			return fmt.Errorf("failed to create focus store: %w", err)
		}
		c.FocusStore = store
	} else {
		c.Logger.Warn("no redis configured, projection versions and focus sessions are process local")
		c.Versions = repository.NewMemoryVersionStore()
		c.FocusStore = repository.NewMemoryFocusStore(c.Config.Focus.SessionTTL)
	}

	if c.Producer != nil {
		c.Publisher = events.NewKafkaPublisher(c.Producer, c.Config.App.Name)
	} else {
		c.Publisher = events.NewNoopPublisher(c.Logger)
	}
	return nil
}

func (c *Container) readinessChecks() map[string]handler.Pinger {
	checks := make(map[string]handler.Pinger)
	if c.DB != nil {
		checks["postgres"] = handler.PingFunc(c.DB.HealthCheck)
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	if c.Producer != nil {
		checks["kafka"] = c.Producer
	}
	return checks
}

// Router builds the HTTP engine
func (c *Container) Router() *gin.Engine {
	return handler.NewRouter(c.Handlers, &handler.RouterConfig{
		JWT: &middleware.JWTConfig{
			Secret: c.Config.JWT.Secret,
			Issuer: c.Config.JWT.Issuer,
		},
		AllowedOrigins: c.Config.Server.AllowedOrigins,
		Audit:          c.Audit,
		Logger:         c.Logger,
	})
}

// Close flushes the audit log and releases infrastructure
func (c *Container) Close(ctx context.Context) {
	if c.Audit != nil {
		if err := c.Audit.Close(); err != nil {
			c.Logger.Warn("failed to close audit logger", zap.Error(err))
		}
	}
	if c.Producer != nil {
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		c.Producer.Close(flushCtx)
		cancel()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
