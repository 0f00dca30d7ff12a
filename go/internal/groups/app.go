package groups

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/rs/zerolog/log"
)

// GroupsRepository defines what the app layer needs from the repository
type GroupsRepository interface {
	CreateGroup(ctx context.Context, name string, ownerID uuid.UUID) (*models.Group, error)
	GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error)
	AddMember(ctx context.Context, member models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
}

// App handles group business logic
type App struct {
	repo GroupsRepository
}

// NewApp creates a new groups App
func NewApp(repo GroupsRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreateGroup creates a group and enrolls the owner as its first member
func (a *App) CreateGroup(ctx context.Context, name string, ownerID uuid.UUID, ownerName string) (*models.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("validation failed: name is required")
	}
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("validation failed: owner_id is required")
	}

	group, err := a.repo.CreateGroup(ctx, name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	if err := a.repo.AddMember(ctx, models.GroupMember{GroupID: group.ID, UserID: ownerID, UserName: ownerName}); err != nil {
		return nil, fmt.Errorf("failed to enroll owner: %w", err)
	}

	log.Info().Str("group_id", group.ID.String()).Str("name", name).Msg("created group")
	return group, nil
}

// GetGroup retrieves a group by ID
func (a *App) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	return a.repo.GetGroup(ctx, id)
}

// AddMember adds a user to a group
func (a *App) AddMember(ctx context.Context, member models.GroupMember) error {
	if member.GroupID == uuid.Nil || member.UserID == uuid.Nil {
		return fmt.Errorf("validation failed: group_id and user_id are required")
	}
	if err := a.repo.AddMember(ctx, member); err != nil {
		return err
	}

	log.Info().
		Str("group_id", member.GroupID.String()).
		Str("user_id", member.UserID.String()).
		Msg("added group member")
	return nil
}

// RemoveMember removes a user from a group
func (a *App) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return a.repo.RemoveMember(ctx, groupID, userID)
}

// ListMembers returns a group's members in join order
func (a *App) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	return a.repo.ListMembers(ctx, groupID)
}
