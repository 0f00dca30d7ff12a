package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchday/go/internal/confirmation"
	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/rs/zerolog/log"
)

// WaitlistRepository defines what the app layer needs from the repository
type WaitlistRepository interface {
	Enqueue(ctx context.Context, gameID, userID uuid.UUID, userName string, position models.PlayerPosition) (*models.WaitlistEntry, error)
	GetQueuedEntry(ctx context.Context, gameID, userID uuid.UUID) (*models.WaitlistEntry, error)
	ListQueued(ctx context.Context, gameID uuid.UUID, position models.PlayerPosition) ([]models.WaitlistEntry, error)
	ClaimNextForOffer(ctx context.Context, gameID uuid.UUID, position models.PlayerPosition, notifiedAt, deadline time.Time, payloadFn func(models.WaitlistEntry) ([]byte, error)) (*models.WaitlistEntry, error)
	Resolve(ctx context.Context, entryID uuid.UUID, status models.WaitlistStatus, eventType string, payload []byte) (*models.WaitlistEntry, error)
	ReleaseOffer(ctx context.Context, entryID uuid.UUID) error
	ListDueOffers(ctx context.Context, now time.Time) ([]models.WaitlistEntry, error)
}

// GameGetter loads games for promotion context
type GameGetter interface {
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
}

// Confirmer is the slice of the confirmation lifecycle promotions need.
// Confirm is the strict form: it fails with ErrCapacityFull instead of
// re-queueing, so a promotion that loses the slot race backs off cleanly.
type Confirmer interface {
	Confirm(ctx context.Context, req confirmation.JoinRequest) (*models.Confirmation, error)
	Decline(ctx context.Context, gameID, userID uuid.UUID) (*models.Confirmation, error)
}

// OfferNotifier delivers slot offers to queued players
type OfferNotifier interface {
	OfferSlot(ctx context.Context, entry models.WaitlistEntry, game *models.Game) error
}

// App manages per-game FIFO waitlists. Promotion is offer-based: a freed
// slot produces exactly one NOTIFIED entry per pool, and the slot itself
// stays unclaimed until that player accepts.
type App struct {
	repo      WaitlistRepository
	games     GameGetter
	confirmer Confirmer
	notifier  OfferNotifier
	clock     clockwork.Clock
}

// NewApp creates a new waitlist App
func NewApp(repo WaitlistRepository, games GameGetter, notifier OfferNotifier, clock clockwork.Clock) *App {
	return &App{
		repo:     repo,
		games:    games,
		notifier: notifier,
		clock:    clock,
	}
}

// SetConfirmer wires the confirmation lifecycle in after construction.
// The two apps reference each other, so one side has to be set late.
func (a *App) SetConfirmer(c Confirmer) {
	a.confirmer = c
}

// Enqueue appends a player to the tail of the pool's queue. Enqueueing a
// player who is already queued returns their existing entry.
func (a *App) Enqueue(ctx context.Context, gameID, userID uuid.UUID, userName string, position models.PlayerPosition) (*models.WaitlistEntry, error) {
	existing, err := a.repo.GetQueuedEntry(ctx, gameID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrEntryNotFound) {
		return nil, err
	}

	entry, err := a.repo.Enqueue(ctx, gameID, userID, userName, position)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue waitlist entry: %w", err)
	}

	log.Info().
		Str("game_id", gameID.String()).
		Str("user_id", userID.String()).
		Int("queue_position", entry.QueuePosition).
		Msg("waitlist entry added")
	return entry, nil
}

// PromoteNext offers the freed slot to the head of the pool's queue. The
// claim enforces one outstanding offer per pool; ErrNothingQueued and
// ErrPromotionInFlight are normal outcomes for the caller to absorb.
func (a *App) PromoteNext(ctx context.Context, gameID uuid.UUID, position models.PlayerPosition) (*models.WaitlistEntry, error) {
	game, err := a.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if game.Status.IsTerminal() || game.Status == models.GameStatusLive {
		log.Debug().
			Str("game_id", gameID.String()).
			Str("status", string(game.Status)).
			Msg("skipping promotion, game no longer open")
		return nil, nil
	}

	now := a.clock.Now().UTC()
	deadline := now.Add(time.Duration(game.WaitlistAutoPromoteMinutes) * time.Minute)
	entry, err := a.repo.ClaimNextForOffer(ctx, gameID, position, now, deadline, func(e models.WaitlistEntry) ([]byte, error) {
		payload, err := json.Marshal(events.WaitlistNotifiedPayload{
			GameID:           gameID.String(),
			UserID:           e.UserID.String(),
			UserName:         e.UserName,
			Position:         string(position),
			NotifiedAt:       now,
			ResponseDeadline: deadline,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal WaitlistNotified payload: %w", err)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	if nerr := a.notifier.OfferSlot(ctx, *entry, game); nerr != nil {
		// Delivery is best effort. The offer stands until the deadline and
		// the sweeper moves on if nobody answers.
		log.Warn().Err(nerr).
			Str("game_id", gameID.String()).
			Str("user_id", entry.UserID.String()).
			Msg("failed to deliver slot offer")
	}

	log.Info().
		Str("game_id", gameID.String()).
		Str("user_id", entry.UserID.String()).
		Str("position", string(position)).
		Time("response_deadline", deadline).
		Msg("waitlist entry notified")
	return entry, nil
}

// Respond settles an outstanding offer. Accepting confirms the player into
// the slot; if a regular join snatched it first the offer rolls back to
// WAITING and ErrCapacityFull surfaces. Declining drops the entry and the
// offer moves down the queue.
func (a *App) Respond(ctx context.Context, gameID, userID uuid.UUID, accept bool) (*models.WaitlistEntry, error) {
	entry, err := a.repo.GetQueuedEntry(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.WaitlistNotified {
		return nil, ErrNotNotified
	}
	now := a.clock.Now().UTC()
	if entry.ExpiredBy(now) {
		return nil, ErrOfferExpired
	}

	if !accept {
		resolved, err := a.repo.Resolve(ctx, entry.ID, models.WaitlistCancelled, "", nil)
		if err != nil {
			return nil, err
		}
		if _, derr := a.confirmer.Decline(ctx, gameID, userID); derr != nil {
			log.Warn().Err(derr).
				Str("game_id", gameID.String()).
				Str("user_id", userID.String()).
				Msg("failed to cancel confirmation row after offer decline")
		}
		log.Info().
			Str("game_id", gameID.String()).
			Str("user_id", userID.String()).
			Msg("offer declined")

		// The slot is still free, pass the offer along.
		if _, perr := a.PromoteNext(ctx, gameID, entry.Position); perr != nil && !benignPromotionErr(perr) {
			return nil, perr
		}
		return resolved, nil
	}

	_, err = a.confirmer.Confirm(ctx, confirmation.JoinRequest{
		GameID:   gameID,
		UserID:   userID,
		UserName: entry.UserName,
		Position: entry.Position,
	})
	if err != nil {
		if errors.Is(err, confirmation.ErrCapacityFull) {
			// Lost the race against a direct join. Back to the queue head,
			// the next SlotFreed event restarts the offer.
			if rerr := a.repo.ReleaseOffer(ctx, entry.ID); rerr != nil {
				return nil, fmt.Errorf("failed to release offer after capacity race: %w", rerr)
			}
			log.Info().
				Str("game_id", gameID.String()).
				Str("user_id", userID.String()).
				Msg("offer lost capacity race, entry returned to queue")
		}
		return nil, err
	}

	payload, err := json.Marshal(events.WaitlistPromotedPayload{
		GameID:     gameID.String(),
		UserID:     userID.String(),
		Position:   string(entry.Position),
		PromotedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal WaitlistPromoted payload: %w", err)
	}
	resolved, err := a.repo.Resolve(ctx, entry.ID, models.WaitlistPromoted, events.TypeWaitlistPromoted, payload)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("game_id", gameID.String()).
		Str("user_id", userID.String()).
		Str("position", string(entry.Position)).
		Msg("waitlist entry promoted")
	return resolved, nil
}

// ExpireDue closes every offer whose response window has passed and moves
// each affected pool's offer to the next entry. Safe to run repeatedly:
// an already-expired entry is simply not due anymore.
func (a *App) ExpireDue(ctx context.Context) (int, error) {
	now := a.clock.Now().UTC()
	due, err := a.repo.ListDueOffers(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, entry := range due {
		payload, err := json.Marshal(events.WaitlistExpiredPayload{
			GameID:    entry.GameID.String(),
			UserID:    entry.UserID.String(),
			Position:  string(entry.Position),
			ExpiredAt: now,
		})
		if err != nil {
			return expired, fmt.Errorf("failed to marshal WaitlistExpired payload: %w", err)
		}
		if _, err := a.repo.Resolve(ctx, entry.ID, models.WaitlistExpired, events.TypeWaitlistExpired, payload); err != nil {
			if errors.Is(err, ErrEntryNotFound) {
				continue // settled concurrently
			}
			return expired, err
		}
		expired++

		if _, derr := a.confirmer.Decline(ctx, entry.GameID, entry.UserID); derr != nil {
			log.Warn().Err(derr).
				Str("game_id", entry.GameID.String()).
				Str("user_id", entry.UserID.String()).
				Msg("failed to cancel confirmation row after offer expiry")
		}
		log.Info().
			Str("game_id", entry.GameID.String()).
			Str("user_id", entry.UserID.String()).
			Msg("offer expired")

		if _, perr := a.PromoteNext(ctx, entry.GameID, entry.Position); perr != nil && !benignPromotionErr(perr) {
			return expired, perr
		}
	}
	return expired, nil
}

// Remove drops a player from the queue, compacting positions behind them.
// Removing someone who is not queued is a no-op. If the removed entry held
// the pool's offer, the offer moves to the next entry.
func (a *App) Remove(ctx context.Context, gameID, userID uuid.UUID) error {
	entry, err := a.repo.GetQueuedEntry(ctx, gameID, userID)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil
		}
		return err
	}

	if _, err := a.repo.Resolve(ctx, entry.ID, models.WaitlistCancelled, "", nil); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil
		}
		return err
	}

	log.Info().
		Str("game_id", gameID.String()).
		Str("user_id", userID.String()).
		Msg("waitlist entry removed")

	if entry.Status == models.WaitlistNotified {
		if _, perr := a.PromoteNext(ctx, gameID, entry.Position); perr != nil && !benignPromotionErr(perr) {
			return perr
		}
	}
	return nil
}

// ListQueued returns a pool's queue in position order
func (a *App) ListQueued(ctx context.Context, gameID uuid.UUID, position models.PlayerPosition) ([]models.WaitlistEntry, error) {
	return a.repo.ListQueued(ctx, gameID, position)
}

// HandleSlotFreed reacts to a SlotFreed event by starting an offer for the
// freed pool. Events for games that closed in the meantime are dropped.
func (a *App) HandleSlotFreed(ctx context.Context, payload events.SlotFreedPayload) error {
	gameID, err := uuid.Parse(payload.GameID)
	if err != nil {
		return fmt.Errorf("invalid game id in SlotFreed payload: %w", err)
	}
	position := models.ParsePlayerPosition(payload.Position)
	if position == models.PositionUnknown {
		return fmt.Errorf("invalid position in SlotFreed payload: %q", payload.Position)
	}

	if _, err := a.PromoteNext(ctx, gameID, position); err != nil && !benignPromotionErr(err) {
		return err
	}
	return nil
}

// benignPromotionErr reports outcomes that mean "no promotion needed", not
// "promotion failed".
func benignPromotionErr(err error) bool {
	return errors.Is(err, ErrNothingQueued) || errors.Is(err, ErrPromotionInFlight)
}
