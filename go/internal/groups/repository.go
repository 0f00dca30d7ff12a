package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/models"
)

// ErrGroupNotFound is returned when no group exists for the given ID.
var ErrGroupNotFound = errors.New("group not found")

// Repository implements group data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new groups repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateGroup creates a new group owned by the given user
func (r *Repository) CreateGroup(ctx context.Context, name string, ownerID uuid.UUID) (*models.Group, error) {
	query := `INSERT INTO groups (id, name, owner_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, name, owner_id, created_at`

	var g models.Group
	err := r.db.QueryRowContext(ctx, query, uuid.New(), name, ownerID).
		Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return &g, nil
}

// GetGroup retrieves a group by ID
func (r *Repository) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	query := `SELECT id, name, owner_id, created_at FROM groups WHERE id = $1`

	var g models.Group
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &g, nil
}

// AddMember adds a user to a group; re-adding is a no-op
func (r *Repository) AddMember(ctx context.Context, member models.GroupMember) error {
	query := `INSERT INTO group_members (group_id, user_id, user_name, user_photo, preferred_position, joined_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (group_id, user_id) DO NOTHING`

	var position *string
	if member.PreferredPosition != nil {
		s := string(*member.PreferredPosition)
		position = &s
	}
	if _, err := r.db.ExecContext(ctx, query, member.GroupID, member.UserID, member.UserName, member.UserPhoto, position); err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a group
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, groupID, userID); err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return nil
}

// ListMembers returns a group's members in join order. This is the fan-out
// target when a new occurrence summons its group.
func (r *Repository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	query := `SELECT group_id, user_id, user_name, user_photo, preferred_position, joined_at
		FROM group_members WHERE group_id = $1 ORDER BY joined_at`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var out []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		var position *string
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.UserName, &m.UserPhoto, &position, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		if position != nil {
			p := models.ParsePlayerPosition(*position)
			m.PreferredPosition = &p
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
