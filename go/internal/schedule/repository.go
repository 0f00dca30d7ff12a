package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/sqlc-dev/pqtype"
)

// ErrTemplateNotFound is returned when no template exists for the ID.
var ErrTemplateNotFound = errors.New("schedule template not found")

const templateColumns = `id, owner_id, owner_name, name, group_id, group_name,
	location_id, location_name, field_id, field_name, field_type,
	recurrence, day_of_week, start_time, duration_minutes, capacity,
	created_at, updated_at`

// Repository implements schedule template data access
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new schedule repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateTemplate inserts a new schedule template
func (r *Repository) CreateTemplate(ctx context.Context, tpl *models.ScheduleTemplate) (*models.ScheduleTemplate, error) {
	capacityJSON, err := json.Marshal(tpl.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal capacity defaults: %w", err)
	}

	query := `INSERT INTO schedule_templates (
		id, owner_id, owner_name, name, group_id, group_name,
		location_id, location_name, field_id, field_name, field_type,
		recurrence, day_of_week, start_time, duration_minutes, capacity,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	RETURNING ` + templateColumns

	created, err := scanTemplate(r.db.QueryRowContext(ctx, query,
		tpl.ID, tpl.OwnerID, tpl.OwnerName, tpl.Name, tpl.GroupID, tpl.GroupName,
		tpl.LocationID, tpl.LocationName, tpl.FieldID, tpl.FieldName, tpl.FieldType,
		string(tpl.Recurrence), int(tpl.DayOfWeek), tpl.StartTime, tpl.DurationMinutes,
		pqtype.NullRawMessage{RawMessage: capacityJSON, Valid: true},
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule template: %w", err)
	}
	return created, nil
}

// GetTemplate retrieves a template by ID
func (r *Repository) GetTemplate(ctx context.Context, id uuid.UUID) (*models.ScheduleTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM schedule_templates WHERE id = $1`

	tpl, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get schedule template: %w", err)
	}
	return tpl, nil
}

// DeleteTemplate removes a template, ending the series. Games already
// materialized keep their dangling schedule_id; the scheduler treats that
// as the series being over.
func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedule_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// BackfillScheduleID stamps a lazily created template's ID onto the game
// that spawned it.
func (r *Repository) BackfillScheduleID(ctx context.Context, gameID, scheduleID uuid.UUID) error {
	query := `UPDATE games SET schedule_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, gameID, scheduleID); err != nil {
		return fmt.Errorf("failed to backfill schedule id: %w", err)
	}
	return nil
}

// InsertEvent writes a scheduling event into the outbox
func (r *Repository) InsertEvent(ctx context.Context, gameID uuid.UUID, eventType string, payload []byte) error {
	query := `INSERT INTO game_outbox (id, game_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())`
	if _, err := r.db.ExecContext(ctx, query, uuid.New(), gameID, eventType, payload); err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

func scanTemplate(row interface{ Scan(dest ...any) error }) (*models.ScheduleTemplate, error) {
	var t models.ScheduleTemplate
	var recurrence string
	var dayOfWeek int
	var capacity pqtype.NullRawMessage
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.OwnerName, &t.Name, &t.GroupID, &t.GroupName,
		&t.LocationID, &t.LocationName, &t.FieldID, &t.FieldName, &t.FieldType,
		&recurrence, &dayOfWeek, &t.StartTime, &t.DurationMinutes, &capacity,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Recurrence = models.ParseRecurrenceType(recurrence)
	t.DayOfWeek = time.Weekday(dayOfWeek)
	if capacity.Valid {
		if err := json.Unmarshal(capacity.RawMessage, &t.Capacity); err != nil {
			return nil, fmt.Errorf("failed to unmarshal capacity defaults: %w", err)
		}
	}
	return &t, nil
}
