package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/repository"
	"github.com/workpulse/work-pulse/internal/service"
	"github.com/workpulse/work-pulse/pkg/logger"
)

// GridWarmerConfig holds configuration for the grid warmer
type GridWarmerConfig struct {
	// Schedule is a standard five-field cron expression
	Schedule string
	// RunTimeout bounds one warm-up pass over all tenants
	RunTimeout time.Duration
	// WarmOnStart runs a pass as soon as the warmer starts
	WarmOnStart bool
}

// DefaultGridWarmerConfig returns default configuration
func DefaultGridWarmerConfig() *GridWarmerConfig {
	return &GridWarmerConfig{
		Schedule:    "0 */6 * * *",
		RunTimeout:  2 * time.Minute,
		WarmOnStart: true,
	}
}

// GridWarmerStats holds warmer statistics
type GridWarmerStats struct {
	IsRunning     bool      `json:"is_running"`
	TotalRuns     int64     `json:"total_runs"`
	TotalWarmed   int64     `json:"total_warmed"`
	TotalFailed   int64     `json:"total_failed"`
	LastRunTime   time.Time `json:"last_run_time"`
	LastRunWarmed int       `json:"last_run_warmed"`
}

// GridWarmer precomputes the current and next month grid of every active tenant so the
// first page view after a cache turnover is served from memory
type GridWarmer struct {
	tenants  repository.TenantRepository
	calendar service.CalendarService
	config   *GridWarmerConfig
	log      *logger.Logger
	now      func() time.Time

	mu    sync.Mutex
	stats GridWarmerStats
}

// NewGridWarmer creates a new GridWarmer
func NewGridWarmer(
	tenants repository.TenantRepository,
	calendar service.CalendarService,
	config *GridWarmerConfig,
	log *logger.Logger,
) *GridWarmer {
	if config == nil {
		config = DefaultGridWarmerConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &GridWarmer{
		tenants:  tenants,
		calendar: calendar,
		config:   config,
		log:      log.Named("grid-warmer"),
		now:      time.Now,
	}
}

// Run schedules warm-up passes and blocks until ctx is cancelled
func (w *GridWarmer) Run(ctx context.Context) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if _, err := c.AddFunc(w.config.Schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid warm schedule %q: %w", w.config.Schedule, err)
	}

	w.setRunning(true)
	defer w.setRunning(false)

	c.Start()
	w.log.Info("grid warmer started", zap.String("schedule", w.config.Schedule))

	if w.config.WarmOnStart {
		go w.RunOnce(ctx)
	}

	<-ctx.Done()
	<-c.Stop().Done()
	w.log.Info("grid warmer stopped")
	return nil
}

// RunOnce warms every active tenant and returns how many succeeded
func (w *GridWarmer) RunOnce(ctx context.Context) int {
	if w.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.RunTimeout)
		defer cancel()
	}

	tenants, err := w.tenants.ListActive(ctx)
	if err != nil {
		w.log.Error("failed to list active tenants", zap.Error(err))
		w.record(0, 1)
		return 0
	}

	warmed, failed := 0, 0
	for _, tenant := range tenants {
		if ctx.Err() != nil {
			break
		}
		if err := w.warmTenant(ctx, tenant.ID); err != nil {
			failed++
			w.log.Warn("failed to warm tenant grids",
				zap.String("tenant_id", tenant.ID),
				zap.Error(err),
			)
			continue
		}
		warmed++
	}

	w.record(warmed, failed)
	w.log.Debug("grid warm-up pass finished",
		zap.Int("warmed", warmed),
		zap.Int("failed", failed),
	)
	return warmed
}

func (w *GridWarmer) warmTenant(ctx context.Context, tenantID string) error {
	loc, err := w.calendar.Location(ctx, tenantID)
	if err != nil {
		return err
	}

	local := w.now().In(loc)
	current := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return w.calendar.Warm(ctx, tenantID, current, current.AddDate(0, 1, 0))
}

func (w *GridWarmer) record(warmed, failed int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.TotalRuns++
	w.stats.TotalWarmed += int64(warmed)
	w.stats.TotalFailed += int64(failed)
	w.stats.LastRunTime = w.now()
	w.stats.LastRunWarmed = warmed
}

func (w *GridWarmer) setRunning(running bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.IsRunning = running
}

// GetStats returns current warmer statistics
func (w *GridWarmer) GetStats() GridWarmerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
