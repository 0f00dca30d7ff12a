package gamification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/mcdev12/matchday/go/internal/users"
)

// MinPlayersForXP is the confirmed-player floor below which a finished
// game is marked processed without awarding anything.
const MinPlayersForXP = 6

var ErrGameNotFinished = errors.New("game is not finished")

// GameStore is the slice of the games layer the processor needs.
type GameStore interface {
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
	ClaimXPProcessing(ctx context.Context, id uuid.UUID) error
}

// ConfirmationLister lists the attendance rows for a game.
type ConfirmationLister interface {
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]models.Confirmation, error)
}

// UserStore applies XP awards to player profiles.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ApplyXPAward(ctx context.Context, id uuid.UUID, award users.XPAward) (*models.User, error)
}

// EventSink records processor events in the outbox.
type EventSink interface {
	InsertEvent(ctx context.Context, gameID uuid.UUID, eventType string, payload []byte) error
}

// Award is one player's XP result for a processed game.
type Award struct {
	UserID    uuid.UUID   `json:"user_id"`
	UserName  string      `json:"user_name"`
	Breakdown XPBreakdown `json:"breakdown"`
	Total     int64       `json:"total"`
	NewXP     int64       `json:"new_xp"`
	NewLevel  int         `json:"new_level"`
	LeveledUp bool        `json:"leveled_up"`
}

// Summary reports one processing pass over a finished game.
type Summary struct {
	GameID      uuid.UUID `json:"game_id"`
	Awards      []Award   `json:"awards"`
	Skipped     string    `json:"skipped,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Processor awards XP for finished games, at most once per game.
type Processor struct {
	games  GameStore
	rows   ConfirmationLister
	users  UserStore
	sink   EventSink
	levels *LevelTable
	clock  clockwork.Clock
}

func NewProcessor(gameStore GameStore, rows ConfirmationLister, userStore UserStore, sink EventSink, levels *LevelTable, clock clockwork.Clock) *Processor {
	return &Processor{
		games:  gameStore,
		rows:   rows,
		users:  userStore,
		sink:   sink,
		levels: levels,
		clock:  clock,
	}
}

// ProcessGame awards XP to every confirmed player of a finished game.
// The claim on the game row makes repeat calls return
// games.ErrResultAlreadyProcessed instead of double-awarding.
func (p *Processor) ProcessGame(ctx context.Context, gameID uuid.UUID) (*Summary, error) {
	game, err := p.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GameStatusFinished {
		return nil, fmt.Errorf("%w: game %s is %s", ErrGameNotFinished, gameID, game.Status)
	}

	if err := p.games.ClaimXPProcessing(ctx, gameID); err != nil {
		return nil, err
	}

	rows, err := p.rows.ListByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	confirmed := make([]models.Confirmation, 0, len(rows))
	for _, row := range rows {
		if row.Status == models.ConfirmationConfirmed {
			confirmed = append(confirmed, row)
		}
	}

	now := p.clock.Now().UTC()
	summary := &Summary{GameID: gameID, ProcessedAt: now}

	if len(confirmed) < MinPlayersForXP {
		summary.Skipped = fmt.Sprintf("only %d confirmed players, need %d", len(confirmed), MinPlayersForXP)
		log.Warn().
			Str("game_id", gameID.String()).
			Int("confirmed", len(confirmed)).
			Msg("skipping xp awards below player floor")
		return summary, nil
	}

	for _, row := range confirmed {
		award, err := p.awardPlayer(ctx, game, row)
		if err != nil {
			return nil, fmt.Errorf("failed to award xp to user %s: %w", row.UserID, err)
		}
		summary.Awards = append(summary.Awards, *award)
	}

	payload, err := json.Marshal(events.XPAwardedPayload{
		GameID:      gameID.String(),
		Players:     len(summary.Awards),
		ProcessedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal xp awarded payload: %w", err)
	}
	if err := p.sink.InsertEvent(ctx, gameID, events.TypeXPAwarded, payload); err != nil {
		return nil, err
	}

	log.Info().
		Str("game_id", gameID.String()).
		Int("players", len(summary.Awards)).
		Msg("awarded xp for finished game")
	return summary, nil
}

func (p *Processor) awardPlayer(ctx context.Context, game *models.Game, row models.Confirmation) (*Award, error) {
	stats, err := ParsePerformance(row.Performance)
	if err != nil {
		return nil, err
	}
	mvp := game.MVPID != nil && *game.MVPID == row.UserID
	breakdown := CalculateXP(stats, row.Position, mvp)
	total := breakdown.Total()

	user, err := p.users.GetUser(ctx, row.UserID)
	if err != nil {
		return nil, err
	}
	newXP := user.XP + total
	newLevel := p.levels.LevelForXP(newXP)

	if _, err := p.users.ApplyXPAward(ctx, row.UserID, users.XPAward{
		XP:         total,
		Level:      newLevel,
		PlayedGame: true,
	}); err != nil {
		return nil, err
	}

	return &Award{
		UserID:    row.UserID,
		UserName:  row.UserName,
		Breakdown: breakdown,
		Total:     total,
		NewXP:     newXP,
		NewLevel:  newLevel,
		LeveledUp: newLevel > user.Level,
	}, nil
}
