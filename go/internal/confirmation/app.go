package confirmation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ConfirmationRepository defines what the app layer needs from the repository
type ConfirmationRepository interface {
	GetActiveConfirmation(ctx context.Context, gameID, userID uuid.UUID) (*models.Confirmation, error)
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]models.Confirmation, error)
	CreatePending(ctx context.Context, req JoinRequest) (*models.Confirmation, error)
	ConfirmWithinCapacity(ctx context.Context, req JoinRequest, now time.Time, payload []byte) (*models.Confirmation, error)
	MarkWaitlisted(ctx context.Context, req JoinRequest) (*models.Confirmation, error)
	CancelInactive(ctx context.Context, gameID, userID uuid.UUID) (*models.Confirmation, error)
	CancelConfirmed(ctx context.Context, gameID, userID uuid.UUID, record *models.CancellationRecord, payload []byte) (*models.Confirmation, error)
}

// GameGetter loads games for deadline and capacity context
type GameGetter interface {
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
}

// Waitlister is the slice of the waitlist manager this app needs: park a
// player when the pool is full, drop them when they withdraw.
type Waitlister interface {
	Enqueue(ctx context.Context, gameID, userID uuid.UUID, userName string, position models.PlayerPosition) (*models.WaitlistEntry, error)
	Remove(ctx context.Context, gameID, userID uuid.UUID) error
}

// App handles the confirmation lifecycle for one (game, user) pair at a
// time: PENDING -> CONFIRMED or WAITLIST -> CANCELLED, with re-entry
// allowed after cancellation.
type App struct {
	repo     ConfirmationRepository
	games    GameGetter
	waitlist Waitlister
	clock    clockwork.Clock
}

// NewApp creates a new confirmation App
func NewApp(repo ConfirmationRepository, games GameGetter, waitlist Waitlister, clock clockwork.Clock) *App {
	return &App{
		repo:     repo,
		games:    games,
		waitlist: waitlist,
		clock:    clock,
	}
}

// Invite creates a PENDING confirmation for the pair. Inviting someone who
// already holds an active row is rejected with ErrAlreadyConfirmed.
func (a *App) Invite(ctx context.Context, req JoinRequest) (*models.Confirmation, error) {
	if err := validateJoinRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	_, err := a.repo.GetActiveConfirmation(ctx, req.GameID, req.UserID)
	if err == nil {
		return nil, ErrAlreadyConfirmed
	}
	if !errors.Is(err, ErrConfirmationNotFound) {
		return nil, err
	}

	c, err := a.repo.CreatePending(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to invite player: %w", err)
	}

	log.Info().
		Str("game_id", req.GameID.String()).
		Str("user_id", req.UserID.String()).
		Msg("invited player")
	return c, nil
}

// Accept puts the player into the game: a capacity slot when one is free,
// the waitlist otherwise. The capacity decision happens under the game
// row lock, so two players racing for the last slot cannot both win it.
func (a *App) Accept(ctx context.Context, req JoinRequest) (*AcceptOutcome, error) {
	if err := validateJoinRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	confirmed, err := a.Confirm(ctx, req)
	if err == nil {
		return &AcceptOutcome{Confirmation: confirmed}, nil
	}
	if !errors.Is(err, ErrCapacityFull) {
		return nil, err
	}

	// Pool is full. Park the player on the queue and mirror it on the
	// confirmation row.
	entry, err := a.waitlist.Enqueue(ctx, req.GameID, req.UserID, req.UserName, req.Position)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue on waitlist: %w", err)
	}
	c, err := a.repo.MarkWaitlisted(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to mark confirmation waitlisted: %w", err)
	}

	log.Info().
		Str("game_id", req.GameID.String()).
		Str("user_id", req.UserID.String()).
		Int("queue_position", entry.QueuePosition).
		Msg("player waitlisted")
	return &AcceptOutcome{Confirmation: c, WaitlistedAt: entry}, nil
}

// Confirm takes a capacity slot or fails with ErrCapacityFull. The
// waitlist manager uses this strict form when promoting, so a promotion
// racing a regular join can lose cleanly and be retried.
func (a *App) Confirm(ctx context.Context, req JoinRequest) (*models.Confirmation, error) {
	if err := validateJoinRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := a.clock.Now().UTC()
	payload, err := json.Marshal(events.PlayerConfirmedPayload{
		GameID:      req.GameID.String(),
		UserID:      req.UserID.String(),
		UserName:    req.UserName,
		Position:    string(req.Position),
		ConfirmedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal PlayerConfirmed payload: %w", err)
	}

	c, err := a.repo.ConfirmWithinCapacity(ctx, req, now, payload)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("game_id", req.GameID.String()).
		Str("user_id", req.UserID.String()).
		Str("position", string(req.Position)).
		Msg("player confirmed")
	return c, nil
}

// Decline cancels a PENDING invite or a WAITLIST hold. Waitlisted players
// are also removed from the queue so positions behind them compact.
func (a *App) Decline(ctx context.Context, gameID, userID uuid.UUID) (*models.Confirmation, error) {
	existing, err := a.repo.GetActiveConfirmation(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if existing.Status == models.ConfirmationConfirmed {
		return nil, fmt.Errorf("%w: confirmed slots are cancelled with a reason", ErrInvalidTransition)
	}

	c, err := a.repo.CancelInactive(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if existing.Status == models.ConfirmationWaitlist {
		if err := a.waitlist.Remove(ctx, gameID, userID); err != nil {
			return nil, fmt.Errorf("failed to remove waitlist entry: %w", err)
		}
	}

	log.Info().
		Str("game_id", gameID.String()).
		Str("user_id", userID.String()).
		Str("was", string(existing.Status)).
		Msg("player declined")
	return c, nil
}

// Cancel frees a confirmed slot. The cancellation is logged with how far
// ahead of kickoff it happened, and a SlotFreed event is written in the
// same transaction for the waitlist manager to consume.
func (a *App) Cancel(ctx context.Context, req CancelRequest) (*models.Confirmation, error) {
	if req.Reason == models.CancellationUnknown || models.ParseCancellationReason(string(req.Reason)) == models.CancellationUnknown {
		return nil, fmt.Errorf("validation failed: invalid cancellation reason: %s", req.Reason)
	}

	game, err := a.games.GetGame(ctx, req.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	existing, err := a.repo.GetActiveConfirmation(ctx, req.GameID, req.UserID)
	if err != nil {
		return nil, err
	}

	now := a.clock.Now().UTC()
	record := &models.CancellationRecord{
		ID:                 uuid.New(),
		GameID:             req.GameID,
		UserID:             req.UserID,
		UserName:           existing.UserName,
		Reason:             req.Reason,
		ReasonText:         req.ReasonText,
		HoursBeforeKickoff: game.Kickoff().Sub(now).Hours(),
		CancelledAt:        now,
	}
	payload, err := json.Marshal(events.SlotFreedPayload{
		GameID:    req.GameID.String(),
		Position:  string(existing.Position),
		VacatedBy: req.UserID.String(),
		FreedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SlotFreed payload: %w", err)
	}

	c, err := a.repo.CancelConfirmed(ctx, req.GameID, req.UserID, record, payload)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("game_id", req.GameID.String()).
		Str("user_id", req.UserID.String()).
		Str("reason", string(req.Reason)).
		Float64("hours_before_kickoff", record.HoursBeforeKickoff).
		Msg("confirmed player cancelled")
	return c, nil
}

// ListByGame returns the full roster snapshot for a game
func (a *App) ListByGame(ctx context.Context, gameID uuid.UUID) ([]models.Confirmation, error) {
	out, err := a.repo.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmations: %w", err)
	}
	return out, nil
}

// SummonPlayers fans PENDING invites out to a member list, typically a
// group roster right after the next occurrence of a series materializes.
// Members already holding an active row are skipped.
func (a *App) SummonPlayers(ctx context.Context, gameID uuid.UUID, members []models.GroupMember) (int, error) {
	invited := 0
	for _, m := range members {
		_, err := a.repo.GetActiveConfirmation(ctx, gameID, m.UserID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrConfirmationNotFound) {
			return invited, err
		}

		req := JoinRequest{GameID: gameID, UserID: m.UserID, UserName: m.UserName, Position: models.PositionField}
		if m.PreferredPosition != nil {
			req.Position = *m.PreferredPosition
		}
		if _, err := a.repo.CreatePending(ctx, req); err != nil {
			return invited, fmt.Errorf("failed to invite %s: %w", m.UserID, err)
		}
		invited++
	}

	log.Info().
		Str("game_id", gameID.String()).
		Int("invited", invited).
		Msg("summoned players")
	return invited, nil
}

func validateJoinRequest(req JoinRequest) error {
	if req.GameID == uuid.Nil {
		return fmt.Errorf("game_id is required")
	}
	if req.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	switch req.Position {
	case models.PositionField, models.PositionGoalkeeper:
		return nil
	default:
		return fmt.Errorf("invalid position: %s", req.Position)
	}
}
