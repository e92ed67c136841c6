package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/telemetry"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCreate   AuditAction = "create"
	AuditActionUpdate   AuditAction = "update"
	AuditActionDelete   AuditAction = "delete"
	AuditActionStart    AuditAction = "start"
	AuditActionPause    AuditAction = "pause"
	AuditActionResume   AuditAction = "resume"
	AuditActionComplete AuditAction = "complete"
	AuditActionCancel   AuditAction = "cancel"
	AuditActionView     AuditAction = "view"
)

// Context keys for audit data
const (
	ContextKeyAuditResourceID = "audit_resource_id"
	ContextKeyAuditMetadata   = "audit_metadata"
	contextKeyAuditSkip       = "audit_skip"
)

// AuditEntry is one row of audit_logs
type AuditEntry struct {
	ID           string         `json:"id"`
	TenantID     *string        `json:"tenant_id,omitempty"`
	UserID       *string        `json:"user_id,omitempty"`
	Action       AuditAction    `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *string        `json:"resource_id,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	TraceID      string         `json:"trace_id,omitempty"`
	StatusCode   int            `json:"status_code"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditSink persists batches of audit entries
type AuditSink interface {
	WriteBatch(ctx context.Context, entries []*AuditEntry) error
}

// PostgresAuditSink writes entries to the audit_logs table in one pgx batch
type PostgresAuditSink struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditSink creates a sink backed by pool
func NewPostgresAuditSink(pool *pgxpool.Pool) *PostgresAuditSink {
	return &PostgresAuditSink{pool: pool}
}

const insertAuditLog = `
	INSERT INTO audit_logs (
		id, tenant_id, user_id, action, resource_type, resource_id,
		ip_address, user_agent, request_id, trace_id, status_code, metadata, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

// WriteBatch inserts entries
func (s *PostgresAuditSink) WriteBatch(ctx context.Context, entries []*AuditEntry) error {
	batch := &pgx.Batch{}
	for _, entry := range entries {
		metadata := entry.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			metadataJSON = []byte("{}")
		}

		batch.Queue(insertAuditLog,
			entry.ID, entry.TenantID, entry.UserID, string(entry.Action), entry.ResourceType, entry.ResourceID,
			entry.IPAddress, entry.UserAgent, entry.RequestID, entry.TraceID, entry.StatusCode, metadataJSON, entry.CreatedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert audit log: %w", err)
		}
	}
	return nil
}

// AuditConfig holds configuration for the audit middleware
type AuditConfig struct {
	// Sink stores flushed batches; nil discards them
	Sink AuditSink
	// BufferSize is the size of the async audit buffer (default: 1000)
	BufferSize int
	// FlushInterval is how often to flush the buffer (default: 5 seconds)
	FlushInterval time.Duration
	// BatchSize is the maximum number of entries to insert in one batch (default: 100)
	BatchSize int
	// SkipPaths is a list of path prefixes to skip auditing
	SkipPaths []string
	// SkipMethods is a list of HTTP methods to skip (default: GET, HEAD, OPTIONS)
	SkipMethods []string
	// ActionMapper maps HTTP method + path to audit action
	ActionMapper func(method, path string) AuditAction
	// ResourceExtractor extracts resource type and ID from path
	ResourceExtractor func(path string) (resourceType string, resourceID string)
	// Logger reports failed flushes and dropped entries
	Logger *logger.Logger
}

// DefaultAuditConfig returns default configuration
func DefaultAuditConfig(sink AuditSink) *AuditConfig {
	return &AuditConfig{
		Sink:              sink,
		BufferSize:        1000,
		FlushInterval:     5 * time.Second,
		BatchSize:         100,
		SkipPaths:         []string{"/health", "/ready"},
		SkipMethods:       []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		ActionMapper:      defaultActionMapper,
		ResourceExtractor: defaultResourceExtractor,
	}
}

// AuditLogger batches audit entries on a background goroutine
type AuditLogger struct {
	config    *AuditConfig
	log       *logger.Logger
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once
	dropped   atomic.Int64

	// mu guards closed; Log holds it shared so Close cannot close buffer mid-send
	mu     sync.RWMutex
	closed bool
}

// NewAuditLogger creates a new audit logger and starts its worker
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.ActionMapper == nil {
		config.ActionMapper = defaultActionMapper
	}
	if config.ResourceExtractor == nil {
		config.ResourceExtractor = defaultResourceExtractor
	}
	log := config.Logger
	if log == nil {
		log = logger.NewNop()
	}

	al := &AuditLogger{
		config: config,
		log:    log.Named("audit"),
		buffer: make(chan *AuditEntry, config.BufferSize),
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log adds an audit entry to the buffer without blocking; entries are dropped when it is
// full or the logger is closed
func (al *AuditLogger) Log(entry *AuditEntry) {
	al.mu.RLock()
	defer al.mu.RUnlock()

	if al.closed {
		al.dropped.Add(1)
		return
	}

	select {
	case al.buffer <- entry:
	default:
		if al.dropped.Add(1)%100 == 1 {
			al.log.Warn("audit buffer full, dropping entries", zap.Int64("dropped_total", al.dropped.Load()))
		}
	}
}

// Dropped returns how many entries were discarded because the buffer was full
func (al *AuditLogger) Dropped() int64 {
	return al.dropped.Load()
}

// Close flushes buffered entries and stops the worker
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		al.mu.Lock()
		al.closed = true
		close(al.buffer)
		al.mu.Unlock()
		al.wg.Wait()
	})
	return nil
}

func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)

	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				al.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		}
	}
}

func (al *AuditLogger) flush(entries []*AuditEntry) {
	if len(entries) == 0 || al.config.Sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// audit failures never reach the request path
	if err := al.config.Sink.WriteBatch(ctx, entries); err != nil {
		al.log.Error("failed to flush audit batch", zap.Int("entries", len(entries)), zap.Error(err))
	}
}

// AuditMiddleware records one entry per mutating request after the handler ran
func AuditMiddleware(al *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		config := al.config
		path := c.Request.URL.Path

		for _, prefix := range config.SkipPaths {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}
		for _, method := range config.SkipMethods {
			if c.Request.Method == method {
				c.Next()
				return
			}
		}

		startTime := time.Now()
		c.Next()

		if skip := c.GetBool(contextKeyAuditSkip); skip {
			return
		}

		entry := &AuditEntry{
			ID:         uuid.New().String(),
			Action:     config.ActionMapper(c.Request.Method, path),
			IPAddress:  getClientIP(c),
			UserAgent:  c.GetHeader("User-Agent"),
			RequestID:  GetRequestID(c),
			TraceID:    telemetry.GetTraceID(c.Request.Context()),
			StatusCode: c.Writer.Status(),
			CreatedAt:  startTime,
		}

		if userID, ok := GetUserID(c); ok && userID != "" {
			entry.UserID = &userID
		}
		if tenantID, ok := GetTenantID(c); ok && tenantID != "" {
			entry.TenantID = &tenantID
		}

		resourceType, resourceID := config.ResourceExtractor(path)
		entry.ResourceType = resourceType
		if id := c.GetString(ContextKeyAuditResourceID); id != "" {
			resourceID = id
		}
		if resourceID != "" {
			entry.ResourceID = &resourceID
		}
		if meta, exists := c.Get(ContextKeyAuditMetadata); exists {
			if m, ok := meta.(map[string]any); ok {
				entry.Metadata = m
			}
		}

		al.Log(entry)
	}
}

// focus transitions are named by their last path segment
var focusActions = map[string]AuditAction{
	"start":    AuditActionStart,
	"pause":    AuditActionPause,
	"resume":   AuditActionResume,
	"complete": AuditActionComplete,
	"cancel":   AuditActionCancel,
}

func defaultActionMapper(method, path string) AuditAction {
	last := path[strings.LastIndex(path, "/")+1:]
	if action, ok := focusActions[strings.ToLower(last)]; ok && method == http.MethodPost {
		return action
	}

	switch method {
	case http.MethodPost:
		return AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return AuditActionUpdate
	case http.MethodDelete:
		return AuditActionDelete
	default:
		return AuditActionView
	}
}

// resource names by first path segment after /api/v1
var resourceTypes = map[string]string{
	"calendar": "calendar_event",
	"tenants":  "tenant",
	"focus":    "focus_session",
}

// defaultResourceExtractor maps /api/v1/calendar/<uuid> to ("calendar_event", "<uuid>")
func defaultResourceExtractor(path string) (resourceType string, resourceID string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "api" && strings.HasPrefix(parts[1], "v") {
		parts = parts[2:]
	}
	if len(parts) == 0 || parts[0] == "" {
		return "unknown", ""
	}

	resourceType, ok := resourceTypes[parts[0]]
	if !ok {
		resourceType = strings.TrimSuffix(parts[0], "s")
	}
	if len(parts) > 1 {
		if _, err := uuid.Parse(parts[1]); err == nil {
			resourceID = parts[1]
		}
	}
	return resourceType, resourceID
}

// getClientIP extracts the client IP address
func getClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// SetAuditResourceID sets the resource ID for audit logging, e.g. for a freshly created event
func SetAuditResourceID(c *gin.Context, resourceID string) {
	c.Set(ContextKeyAuditResourceID, resourceID)
}

// SetAuditMetadata sets additional metadata for audit logging
func SetAuditMetadata(c *gin.Context, metadata map[string]any) {
	c.Set(ContextKeyAuditMetadata, metadata)
}

// SkipAudit marks the current request to skip audit logging
func SkipAudit(c *gin.Context) {
	c.Set(contextKeyAuditSkip, true)
}
