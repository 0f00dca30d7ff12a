package games

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/rs/zerolog/log"
)

var wallClockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// GamesRepository defines what the app layer needs from the repository
type GamesRepository interface {
	CreateGame(ctx context.Context, game *models.Game) (*models.Game, error)
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
	ListByFieldAndDate(ctx context.Context, fieldID uuid.UUID, date time.Time) ([]models.Game, error)
	ListByScheduleAndDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) ([]models.Game, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next models.GameStatus) (*models.Game, error)
	CancelGame(ctx context.Context, id uuid.UUID, req CancelGameRequest, payload []byte) (*models.Game, error)
	RecordResult(ctx context.Context, id uuid.UUID, req RecordResultRequest, payload []byte) (*models.Game, error)
	ClaimXPProcessing(ctx context.Context, id uuid.UUID) error
}

// App handles game lifecycle business logic
type App struct {
	repo  GamesRepository
	clock clockwork.Clock
}

// NewApp creates a new games App
func NewApp(repo GamesRepository, clock clockwork.Clock) *App {
	return &App{
		repo:  repo,
		clock: clock,
	}
}

// CreateGame creates a new game in SCHEDULED status with validation
func (a *App) CreateGame(ctx context.Context, req CreateGameRequest) (*models.Game, error) {
	if err := a.validateCreateGameRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("validation failed: invalid date %q: %w", req.Date, err)
	}

	game := &models.Game{
		ID:           uuid.New(),
		ScheduleID:   req.ScheduleID,
		GroupID:      req.GroupID,
		GroupName:    req.GroupName,
		OwnerID:      req.OwnerID,
		OwnerName:    req.OwnerName,
		LocationID:   req.LocationID,
		LocationName: req.LocationName,
		FieldID:      req.FieldID,
		FieldName:    req.FieldName,
		GameType:     req.GameType,
		Date:         date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Status:       models.GameStatusScheduled,
		Recurrence:   req.Recurrence,

		MaxPlayers:     req.MaxPlayers,
		MaxGoalkeepers: req.MaxGoalkeepers,

		ConfirmationDeadlineHours:  req.ConfirmationDeadlineHours,
		WaitlistAutoPromoteMinutes: req.WaitlistAutoPromoteMinutes,
	}

	created, err := a.repo.CreateGame(ctx, game)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Info().
		Str("game_id", created.ID.String()).
		Str("field", created.FieldName).
		Str("date", req.Date).
		Str("start", created.StartTime).
		Msg("created game")
	return created, nil
}

// GetGame retrieves a game by ID
func (a *App) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	game, err := a.repo.GetGame(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// ListByFieldAndDate retrieves all games on a field for a given date
func (a *App) ListByFieldAndDate(ctx context.Context, fieldID uuid.UUID, date time.Time) ([]models.Game, error) {
	games, err := a.repo.ListByFieldAndDate(ctx, fieldID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// ListByScheduleAndDate returns a schedule's games on a given day.
func (a *App) ListByScheduleAndDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) ([]models.Game, error) {
	games, err := a.repo.ListByScheduleAndDate(ctx, scheduleID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// UpdateStatus moves a game along its lifecycle. Transitions are
// monotonic: SCHEDULED -> CONFIRMED -> LIVE -> FINISHED, never backwards.
func (a *App) UpdateStatus(ctx context.Context, id uuid.UUID, next models.GameStatus) (*models.Game, error) {
	if next == models.GameStatusUnknown || models.ParseGameStatus(string(next)) == models.GameStatusUnknown {
		return nil, fmt.Errorf("validation failed: invalid game status: %s", next)
	}
	if next == models.GameStatusCancelled {
		return nil, fmt.Errorf("validation failed: cancellation requires a cancelling user, use CancelGame")
	}

	game, err := a.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("game_id", id.String()).
		Str("status", string(next)).
		Msg("updated game status")
	return game, nil
}

// CancelGame cancels a game outright. Existing confirmations stay as a
// historical record and in-flight waitlist notifications expire against
// the cancelled game without promoting anyone.
func (a *App) CancelGame(ctx context.Context, id uuid.UUID, req CancelGameRequest) (*models.Game, error) {
	if req.CancelledBy == uuid.Nil {
		return nil, fmt.Errorf("validation failed: cancelled_by is required")
	}

	payload, err := json.Marshal(events.GameCancelledPayload{
		GameID:      id.String(),
		CancelledBy: req.CancelledBy.String(),
		Reason:      req.Reason,
		CancelledAt: a.clock.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GameCancelled payload: %w", err)
	}

	game, err := a.repo.CancelGame(ctx, id, req, payload)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("game_id", id.String()).
		Str("cancelled_by", req.CancelledBy.String()).
		Str("reason", req.Reason).
		Msg("cancelled game")
	return game, nil
}

// RecordResult stores the final score and moves the game to FINISHED.
// The GameFinished event it emits drives the post-game pipeline.
func (a *App) RecordResult(ctx context.Context, id uuid.UUID, req RecordResultRequest) (*models.Game, error) {
	if req.Team1Score < 0 || req.Team2Score < 0 {
		return nil, fmt.Errorf("validation failed: scores cannot be negative")
	}

	finished := events.GameFinishedPayload{
		GameID:     id.String(),
		Team1Score: req.Team1Score,
		Team2Score: req.Team2Score,
		FinishedAt: a.clock.Now().UTC(),
	}
	if req.MVPID != nil {
		finished.MVPID = req.MVPID.String()
	}
	payload, err := json.Marshal(finished)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GameFinished payload: %w", err)
	}

	game, err := a.repo.RecordResult(ctx, id, req, payload)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("game_id", id.String()).
		Int("team1", req.Team1Score).
		Int("team2", req.Team2Score).
		Msg("recorded game result")
	return game, nil
}

// ClaimXPProcessing marks a finished game's result as consumed by the
// gamification processor. Returns ErrResultAlreadyProcessed on a repeat
// claim so the caller can skip the award pass.
func (a *App) ClaimXPProcessing(ctx context.Context, id uuid.UUID) error {
	return a.repo.ClaimXPProcessing(ctx, id)
}

// validateCreateGameRequest validates create game request
func (a *App) validateCreateGameRequest(req CreateGameRequest) error {
	if req.OwnerID == uuid.Nil {
		return fmt.Errorf("owner_id is required")
	}
	if req.LocationID == uuid.Nil {
		return fmt.Errorf("location_id is required")
	}
	if req.FieldID == uuid.Nil {
		return fmt.Errorf("field_id is required")
	}
	if req.Date == "" {
		return fmt.Errorf("date is required")
	}
	if !wallClockRe.MatchString(req.StartTime) {
		return fmt.Errorf("start_time must be zero-padded HH:MM, got %q", req.StartTime)
	}
	if !wallClockRe.MatchString(req.EndTime) {
		return fmt.Errorf("end_time must be zero-padded HH:MM, got %q", req.EndTime)
	}
	if req.EndTime <= req.StartTime {
		return fmt.Errorf("end_time must be after start_time")
	}
	if req.MaxPlayers <= 0 {
		return fmt.Errorf("max_players must be positive")
	}
	if req.MaxGoalkeepers < 0 {
		return fmt.Errorf("max_goalkeepers cannot be negative")
	}
	if req.Recurrence == models.RecurrenceUnknown {
		return fmt.Errorf("invalid recurrence type")
	}
	return nil
}
