package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/middleware"
)

// RoleAdmin may manage tenants
const RoleAdmin = "admin"

// Handlers bundles everything the router mounts
type Handlers struct {
	Health   *HealthHandler
	Event    *EventHandler
	Calendar *CalendarHandler
	Tenant   *TenantHandler
	Focus    *FocusHandler
}

// RouterConfig holds the cross-cutting pieces of the HTTP surface
type RouterConfig struct {
	JWT            *middleware.JWTConfig
	AllowedOrigins []string
	// Audit is optional; nil disables the audit log
	Audit  *middleware.AuditLogger
	Logger *logger.Logger
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(h *Handlers, cfg *RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Tracing())
	router.Use(middleware.AccessLog(cfg.Logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTMiddleware(cfg.JWT))
	if cfg.Audit != nil {
		v1.Use(middleware.AuditMiddleware(cfg.Audit))
	}

	cal := v1.Group("/calendar")
	{
		cal.GET("", h.Event.List)
		cal.POST("", h.Event.Create)
		cal.GET("/grid", h.Calendar.Grid)
		cal.GET("/upcoming", h.Calendar.Upcoming)
		cal.GET("/export.ics", h.Calendar.Export)
		cal.GET("/:id", h.Event.Get)
		cal.PUT("/:id", h.Event.Update)
		cal.DELETE("/:id", h.Event.Delete)
	}

	v1.GET("/tenant", h.Tenant.Current)

	tenants := v1.Group("/tenants")
	tenants.Use(middleware.RequireRole(RoleAdmin))
	{
		tenants.GET("", h.Tenant.List)
		tenants.POST("", h.Tenant.Create)
		tenants.GET("/slug/:slug", h.Tenant.GetBySlug)
		tenants.GET("/:id", h.Tenant.GetByID)
		tenants.PUT("/:id", h.Tenant.Update)
		tenants.DELETE("/:id", h.Tenant.Delete)
	}

	focus := v1.Group("/focus")
	{
		focus.GET("/current", h.Focus.Current)
		focus.POST("/start", h.Focus.Start)
		focus.POST("/pause", h.Focus.Pause)
		focus.POST("/resume", h.Focus.Resume)
		focus.POST("/complete", h.Focus.Complete)
		focus.POST("/cancel", h.Focus.Cancel)
	}

	return router
}
