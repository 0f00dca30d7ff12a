package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/rs/zerolog/log"
)

// UsersRepository defines what the app layer needs from the repository
type UsersRepository interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error)
	ApplyXPAward(ctx context.Context, id uuid.UUID, award XPAward) (*models.User, error)
}

// App handles user business logic
type App struct {
	repo UsersRepository
}

// NewApp creates a new users App
func NewApp(repo UsersRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreateUser creates a new user with validation
func (a *App) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if req.DisplayName == "" {
		return nil, fmt.Errorf("validation failed: display_name is required")
	}

	user, err := a.repo.CreateUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("display_name", user.DisplayName).Msg("created user")
	return user, nil
}

// GetUser retrieves a user by ID
func (a *App) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser updates a user's profile with validation
func (a *App) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	if req.DisplayName == "" {
		return nil, fmt.Errorf("validation failed: display_name cannot be empty")
	}

	user, err := a.repo.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", id.String()).Msg("updated user")
	return user, nil
}

// ApplyXPAward applies one game's progression to a user
func (a *App) ApplyXPAward(ctx context.Context, id uuid.UUID, award XPAward) (*models.User, error) {
	if award.XP < 0 {
		return nil, fmt.Errorf("validation failed: xp award cannot be negative")
	}

	user, err := a.repo.ApplyXPAward(ctx, id, award)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", id.String()).
		Int64("xp", award.XP).
		Int("level", user.Level).
		Msg("applied xp award")
	return user, nil
}
