package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/models"
)

// ErrUserNotFound is returned when no user exists for the given ID.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, display_name, photo_url, xp, level, games_played, games_cancelled, created_at, updated_at`

// Repository implements user data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new users repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateUser creates a new user at level 0 with zero XP
func (r *Repository) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	query := `INSERT INTO users (id, display_name, photo_url, xp, level, games_played, games_cancelled, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, 0, NOW(), NOW())
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, uuid.New(), req.DisplayName, req.PhotoURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUser updates a user's profile fields
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	query := `UPDATE users SET display_name = $2, photo_url = $3, updated_at = NOW()
		WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, req.DisplayName, req.PhotoURL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ApplyXPAward adds XP, sets the recomputed level, and bumps the play or
// cancellation counters in one statement.
func (r *Repository) ApplyXPAward(ctx context.Context, id uuid.UUID, award XPAward) (*models.User, error) {
	query := `UPDATE users SET
			xp = xp + $2,
			level = $3,
			games_played = games_played + $4,
			games_cancelled = games_cancelled + $5,
			updated_at = NOW()
		WHERE id = $1 RETURNING ` + userColumns

	played, cancelled := 0, 0
	if award.PlayedGame {
		played = 1
	}
	if award.CancelledGame {
		cancelled = 1
	}
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, award.XP, award.Level, played, cancelled))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to apply xp award: %w", err)
	}
	return user, nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.DisplayName, &u.PhotoURL, &u.XP, &u.Level,
		&u.GamesPlayed, &u.GamesCancelled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
