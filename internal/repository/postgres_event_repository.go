package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workpulse/work-pulse/internal/domain"
)

const eventColumns = `id, tenant_id, title, COALESCE(description, '') AS description, start_at, end_at,
	COALESCE(location, '') AS location, event_type, repeat_rule, repeat_end_date,
	created_at, updated_at, deleted_at`

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Create inserts a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO calendar_events (
			id, tenant_id, title, description, start_at, end_at, location,
			event_type, repeat_rule, repeat_end_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.TenantID,
		event.Title,
		nullStringOrValue(event.Description),
		event.Start,
		event.End,
		nullStringOrValue(event.Location),
		string(event.Type),
		string(event.Repeat),
		event.RepeatEndDate,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by tenant and ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM calendar_events
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`
	event, err := scanEvent(r.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE ... ESCAPE '\' pattern matching search as plain text
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// List retrieves events ordered by start with pagination and title search
func (r *PostgresEventRepository) List(ctx context.Context, tenantID string, page, limit int, search string) ([]*domain.Event, int, error) {
	whereClause := "WHERE tenant_id = $1 AND deleted_at IS NULL"
	args := []any{tenantID}
	argIndex := 2

	if search != "" {
		whereClause += fmt.Sprintf(` AND title ILIKE $%d ESCAPE '\'`, argIndex)
		args = append(args, containsPattern(search))
		argIndex++
	}

	var totalCount int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM calendar_events %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	offset := (page - 1) * limit
	query := fmt.Sprintf(`SELECT %s
		FROM calendar_events
		%s
		ORDER BY start_at ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, eventColumns, whereClause, argIndex, argIndex+1)
	args = append(args, limit, offset)

	events, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return events, totalCount, nil
}

// ListAll retrieves every live event of a tenant
func (r *PostgresEventRepository) ListAll(ctx context.Context, tenantID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM calendar_events
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY start_at ASC, id ASC
	`
	return r.query(ctx, query, tenantID)
}

// Update updates an event
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE calendar_events
		SET title = $3, description = $4, start_at = $5, end_at = $6, location = $7,
		    event_type = $8, repeat_rule = $9, repeat_end_date = $10, updated_at = $11
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`
	result, err := r.pool.Exec(ctx, query,
		event.TenantID,
		event.ID,
		event.Title,
		nullStringOrValue(event.Description),
		event.Start,
		event.End,
		nullStringOrValue(event.Location),
		string(event.Type),
		string(event.Repeat),
		event.RepeatEndDate,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks an event deleted
func (r *PostgresEventRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	query := `
		UPDATE calendar_events
		SET deleted_at = $3
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`
	result, err := r.pool.Exec(ctx, query, tenantID, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresEventRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		event     domain.Event
		eventType string
		repeat    string
	)
	err := row.Scan(
		&event.ID,
		&event.TenantID,
		&event.Title,
		&event.Description,
		&event.Start,
		&event.End,
		&event.Location,
		&eventType,
		&repeat,
		&event.RepeatEndDate,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Type = domain.EventType(eventType)
	event.Repeat = domain.RepeatRule(repeat)
	return &event, nil
}

// nullStringOrValue returns nil for empty strings, otherwise returns the value
func nullStringOrValue(s string) any {
	if s == "" {
		return nil
	}
	return s
}
