package games

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/mcdev12/matchday/go/internal/sqlutil"
)

const gameColumns = `id, schedule_id, group_id, group_name, owner_id, owner_name,
	location_id, location_name, field_id, field_name, game_type,
	game_date, start_time, end_time, status, recurrence,
	max_players, max_goalkeepers, players_count, goalkeepers_count,
	confirmation_deadline_hours, waitlist_auto_promote_minutes,
	team1_score, team2_score, mvp_id, xp_processed,
	cancelled_by, cancel_reason, created_at, updated_at, deleted_at`

// Repository implements game data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new games repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateGame inserts a new game in SCHEDULED status with empty counters
func (r *Repository) CreateGame(ctx context.Context, game *models.Game) (*models.Game, error) {
	query := `INSERT INTO games (
		id, schedule_id, group_id, group_name, owner_id, owner_name,
		location_id, location_name, field_id, field_name, game_type,
		game_date, start_time, end_time, status, recurrence,
		max_players, max_goalkeepers, players_count, goalkeepers_count,
		confirmation_deadline_hours, waitlist_auto_promote_minutes,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		$15, $16, $17, $18, 0, 0, $19, $20, NOW(), NOW()
	) RETURNING ` + gameColumns

	row := r.db.QueryRowContext(ctx, query,
		game.ID, game.ScheduleID, game.GroupID, game.GroupName, game.OwnerID, game.OwnerName,
		game.LocationID, game.LocationName, game.FieldID, game.FieldName, game.GameType,
		game.Date, game.StartTime, game.EndTime, string(game.Status), string(game.Recurrence),
		game.MaxPlayers, game.MaxGoalkeepers,
		game.ConfirmationDeadlineHours, game.WaitlistAutoPromoteMinutes,
	)
	created, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return created, nil
}

// GetGame retrieves a game by ID
func (r *Repository) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1 AND deleted_at IS NULL`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// ListByFieldAndDate retrieves all games on a field for a calendar date,
// cancelled ones included. Conflict checks filter by status themselves.
func (r *Repository) ListByFieldAndDate(ctx context.Context, fieldID uuid.UUID, date time.Time) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games
		WHERE field_id = $1 AND game_date = $2 AND deleted_at IS NULL
		ORDER BY start_time`

	rows, err := r.db.QueryContext(ctx, query, fieldID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list games by field and date: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

// ListByScheduleAndDate retrieves games belonging to a schedule on a date.
// The scheduler uses it to keep materialization idempotent.
func (r *Repository) ListByScheduleAndDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games
		WHERE schedule_id = $1 AND game_date = $2 AND deleted_at IS NULL`

	rows, err := r.db.QueryContext(ctx, query, scheduleID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list games by schedule and date: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

// UpdateStatus moves a game to a new status. The transition is validated
// against the current row inside a transaction so concurrent updates
// cannot skip the lifecycle order.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, next models.GameStatus) (*models.Game, error) {
	var updated *models.Game
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := lockGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
		}

		query := `UPDATE games SET status = $2, updated_at = NOW()
			WHERE id = $1 RETURNING ` + gameColumns
		updated, err = scanGame(tx.QueryRowContext(ctx, query, id, string(next)))
		if err != nil {
			return fmt.Errorf("failed to update game status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelGame marks the game CANCELLED with the cancelling user and reason,
// and writes a GameCancelled outbox event in the same transaction.
// Waitlist entries stay as they are; in-flight notifications expire
// harmlessly against a cancelled game.
func (r *Repository) CancelGame(ctx context.Context, id uuid.UUID, req CancelGameRequest, payload []byte) (*models.Game, error) {
	var updated *models.Game
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := lockGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(models.GameStatusCancelled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, models.GameStatusCancelled)
		}

		query := `UPDATE games SET status = $2, cancelled_by = $3, cancel_reason = $4, updated_at = NOW()
			WHERE id = $1 RETURNING ` + gameColumns
		updated, err = scanGame(tx.QueryRowContext(ctx, query, id, string(models.GameStatusCancelled), req.CancelledBy, req.Reason))
		if err != nil {
			return fmt.Errorf("failed to cancel game: %w", err)
		}

		insert := `INSERT INTO game_outbox (id, game_id, event_type, payload, created_at)
			VALUES ($1, $2, $3, $4, NOW())`
		if _, err := tx.ExecContext(ctx, insert, uuid.New(), id, events.TypeGameCancelled, payload); err != nil {
			return fmt.Errorf("failed to insert GameCancelled outbox event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecordResult stores the final score and MVP, moves the game to
// FINISHED and writes a GameFinished outbox event in the same
// transaction.
func (r *Repository) RecordResult(ctx context.Context, id uuid.UUID, req RecordResultRequest, payload []byte) (*models.Game, error) {
	var updated *models.Game
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := lockGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(models.GameStatusFinished) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, models.GameStatusFinished)
		}

		query := `UPDATE games SET status = $2, team1_score = $3, team2_score = $4, mvp_id = $5, updated_at = NOW()
			WHERE id = $1 RETURNING ` + gameColumns
		updated, err = scanGame(tx.QueryRowContext(ctx, query, id, string(models.GameStatusFinished), req.Team1Score, req.Team2Score, req.MVPID))
		if err != nil {
			return fmt.Errorf("failed to record game result: %w", err)
		}

		insert := `INSERT INTO game_outbox (id, game_id, event_type, payload, created_at)
			VALUES ($1, $2, $3, $4, NOW())`
		if _, err := tx.ExecContext(ctx, insert, uuid.New(), id, events.TypeGameFinished, payload); err != nil {
			return fmt.Errorf("failed to insert GameFinished outbox event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ClaimXPProcessing flips xp_processed from false to true. It returns
// ErrResultAlreadyProcessed when another worker already claimed the game,
// which makes the XP award idempotent.
func (r *Repository) ClaimXPProcessing(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE games SET xp_processed = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND xp_processed = FALSE`

	res, err := r.db.ExecContext(ctx, query, id, string(models.GameStatusFinished))
	if err != nil {
		return fmt.Errorf("failed to claim xp processing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrResultAlreadyProcessed
	}
	return nil
}

func lockGame(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	game, err := scanGame(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to lock game row: %w", err)
	}
	return game, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*models.Game, error) {
	var g models.Game
	var status, recurrence string
	err := row.Scan(
		&g.ID, &g.ScheduleID, &g.GroupID, &g.GroupName, &g.OwnerID, &g.OwnerName,
		&g.LocationID, &g.LocationName, &g.FieldID, &g.FieldName, &g.GameType,
		&g.Date, &g.StartTime, &g.EndTime, &status, &recurrence,
		&g.MaxPlayers, &g.MaxGoalkeepers, &g.PlayersCount, &g.GoalkeepersCount,
		&g.ConfirmationDeadlineHours, &g.WaitlistAutoPromoteMinutes,
		&g.Team1Score, &g.Team2Score, &g.MVPID, &g.XPProcessed,
		&g.CancelledBy, &g.CancelReason, &g.CreatedAt, &g.UpdatedAt, &g.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Status = models.ParseGameStatus(status)
	g.Recurrence = models.ParseRecurrenceType(recurrence)
	return &g, nil
}
