package confirmation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/capacity"
	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/models"
	"github.com/mcdev12/matchday/go/internal/sqlutil"
)

const confirmationColumns = `id, game_id, user_id, user_name, position, status,
	payment_status, is_casual_player, performance, confirmed_at, created_at, updated_at`

// Repository implements confirmation data access. Every slot-taking or
// slot-freeing write runs in a transaction that locks the game row first,
// so the denormalized counters and the confirmation rows can never drift.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new confirmation repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// gameSlot is the slice of the game row the capacity decision needs.
type gameSlot struct {
	status                    models.GameStatus
	date                      time.Time
	startTime                 string
	maxPlayers                int
	maxGoalkeepers            int
	playersCount              int
	goalkeepersCount          int
	confirmationDeadlineHours int
}

func (s gameSlot) open() bool {
	return s.status == models.GameStatusScheduled || s.status == models.GameStatusConfirmed
}

func (s gameSlot) kickoff() time.Time {
	t, err := time.Parse("15:04", s.startTime)
	if err != nil {
		return s.date
	}
	return time.Date(s.date.Year(), s.date.Month(), s.date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

func (s gameSlot) deadlinePassed(now time.Time) bool {
	if s.confirmationDeadlineHours <= 0 {
		return false
	}
	return now.After(s.kickoff().Add(-time.Duration(s.confirmationDeadlineHours) * time.Hour))
}

func (s gameSlot) hasRoom(pos models.PlayerPosition) bool {
	t := capacity.Tracker{MaxField: s.maxPlayers, MaxGoalkeepers: s.maxGoalkeepers}
	return t.HasRoom(pos, s.playersCount, s.goalkeepersCount)
}

func lockGameSlot(ctx context.Context, tx *sql.Tx, gameID uuid.UUID) (*gameSlot, error) {
	query := `SELECT status, game_date, start_time, max_players, max_goalkeepers,
		players_count, goalkeepers_count, confirmation_deadline_hours
		FROM games WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	var s gameSlot
	var status string
	err := tx.QueryRowContext(ctx, query, gameID).Scan(
		&status, &s.date, &s.startTime, &s.maxPlayers, &s.maxGoalkeepers,
		&s.playersCount, &s.goalkeepersCount, &s.confirmationDeadlineHours,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("game %s not found", gameID)
		}
		return nil, fmt.Errorf("failed to lock game row: %w", err)
	}
	s.status = models.ParseGameStatus(status)
	return &s, nil
}

// GetActiveConfirmation returns the single non-cancelled confirmation for
// the (game, user) pair, or ErrConfirmationNotFound.
func (r *Repository) GetActiveConfirmation(ctx context.Context, gameID, userID uuid.UUID) (*models.Confirmation, error) {
	query := `SELECT ` + confirmationColumns + ` FROM confirmations
		WHERE game_id = $1 AND user_id = $2 AND status IN ('PENDING', 'CONFIRMED', 'WAITLIST')`

	c, err := scanConfirmation(r.db.QueryRowContext(ctx, query, gameID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfirmationNotFound
		}
		return nil, fmt.Errorf("failed to get active confirmation: %w", err)
	}
	return c, nil
}

// ListByGame returns every confirmation for a game ordered by confirmation
// time, active and cancelled alike.
func (r *Repository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]models.Confirmation, error) {
	query := `SELECT ` + confirmationColumns + ` FROM confirmations
		WHERE game_id = $1 ORDER BY confirmed_at NULLS LAST, created_at`

	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmations: %w", err)
	}
	defer rows.Close()

	var out []models.Confirmation
	for rows.Next() {
		c, err := scanConfirmation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan confirmation row: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CreatePending inserts a PENDING invite for the pair. A second active row
// for the same pair trips the partial unique index and is reported as
// ErrAlreadyConfirmed territory for the caller to inspect.
func (r *Repository) CreatePending(ctx context.Context, req JoinRequest) (*models.Confirmation, error) {
	query := `INSERT INTO confirmations (id, game_id, user_id, user_name, position, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'PENDING', 'PENDING', NOW(), NOW())
		RETURNING ` + confirmationColumns

	c, err := scanConfirmation(r.db.QueryRowContext(ctx, query, uuid.New(), req.GameID, req.UserID, req.UserName, string(req.Position)))
	if err != nil {
		return nil, fmt.Errorf("failed to create pending confirmation: %w", err)
	}
	return c, nil
}

// ConfirmWithinCapacity takes a capacity slot atomically: the game row is
// locked, the pool re-checked under the lock, and the confirmation row and
// counter move together. Returns ErrCapacityFull without touching anything
// when the pool is exhausted.
func (r *Repository) ConfirmWithinCapacity(ctx context.Context, req JoinRequest, now time.Time, payload []byte) (*models.Confirmation, error) {
	var confirmed *models.Confirmation
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		slot, err := lockGameSlot(ctx, tx, req.GameID)
		if err != nil {
			return err
		}
		if !slot.open() {
			return ErrGameNotOpen
		}
		if slot.deadlinePassed(now) {
			return ErrDeadlinePassed
		}
		if !slot.hasRoom(req.Position) {
			return ErrCapacityFull
		}

		existing, err := activeForUpdate(ctx, tx, req.GameID, req.UserID)
		if err != nil && !errors.Is(err, ErrConfirmationNotFound) {
			return err
		}

		switch {
		case existing == nil:
			insert := `INSERT INTO confirmations (id, game_id, user_id, user_name, position, status, payment_status, confirmed_at, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, 'CONFIRMED', 'PENDING', $6, NOW(), NOW())
				RETURNING ` + confirmationColumns
			confirmed, err = scanConfirmation(tx.QueryRowContext(ctx, insert, uuid.New(), req.GameID, req.UserID, req.UserName, string(req.Position), now))
			if err != nil {
				return fmt.Errorf("failed to insert confirmation: %w", err)
			}
		case existing.Status == models.ConfirmationConfirmed:
			return ErrAlreadyConfirmed
		default:
			// PENDING or WAITLIST row moves into the slot, payment status
			// and performance ride along untouched.
			update := `UPDATE confirmations SET status = 'CONFIRMED', position = $3, confirmed_at = $4, updated_at = NOW()
				WHERE id = $1 AND game_id = $2 RETURNING ` + confirmationColumns
			confirmed, err = scanConfirmation(tx.QueryRowContext(ctx, update, existing.ID, req.GameID, string(req.Position), now))
			if err != nil {
				return fmt.Errorf("failed to promote confirmation: %w", err)
			}
		}

		if err := adjustCounter(ctx, tx, req.GameID, req.Position, +1); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, req.GameID, events.TypePlayerConfirmed, payload)
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// MarkWaitlisted records the pair as queued. An existing PENDING row flips
// to WAITLIST; otherwise a fresh WAITLIST row is created. No counter moves.
func (r *Repository) MarkWaitlisted(ctx context.Context, req JoinRequest) (*models.Confirmation, error) {
	var out *models.Confirmation
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		existing, err := activeForUpdate(ctx, tx, req.GameID, req.UserID)
		if err != nil && !errors.Is(err, ErrConfirmationNotFound) {
			return err
		}

		if existing == nil {
			insert := `INSERT INTO confirmations (id, game_id, user_id, user_name, position, status, payment_status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, 'WAITLIST', 'PENDING', NOW(), NOW())
				RETURNING ` + confirmationColumns
			out, err = scanConfirmation(tx.QueryRowContext(ctx, insert, uuid.New(), req.GameID, req.UserID, req.UserName, string(req.Position)))
			if err != nil {
				return fmt.Errorf("failed to insert waitlist confirmation: %w", err)
			}
			return nil
		}
		if existing.Status == models.ConfirmationConfirmed {
			return ErrAlreadyConfirmed
		}

		update := `UPDATE confirmations SET status = 'WAITLIST', position = $3, updated_at = NOW()
			WHERE id = $1 AND game_id = $2 RETURNING ` + confirmationColumns
		out, err = scanConfirmation(tx.QueryRowContext(ctx, update, existing.ID, req.GameID, string(req.Position)))
		if err != nil {
			return fmt.Errorf("failed to mark confirmation waitlisted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelInactive cancels a PENDING or WAITLIST row. No slot is held, so no
// counter moves and no SlotFreed event is written.
func (r *Repository) CancelInactive(ctx context.Context, gameID, userID uuid.UUID) (*models.Confirmation, error) {
	var out *models.Confirmation
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		existing, err := activeForUpdate(ctx, tx, gameID, userID)
		if err != nil {
			return err
		}
		if existing.Status == models.ConfirmationConfirmed {
			return fmt.Errorf("%w: confirmed slots are cancelled with a reason", ErrInvalidTransition)
		}

		update := `UPDATE confirmations SET status = 'CANCELLED', updated_at = NOW()
			WHERE id = $1 RETURNING ` + confirmationColumns
		out, err = scanConfirmation(tx.QueryRowContext(ctx, update, existing.ID))
		if err != nil {
			return fmt.Errorf("failed to cancel confirmation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelConfirmed frees a held slot: the confirmation row and the counter
// move together under the game lock, the cancellation is logged, and a
// SlotFreed event lands in the outbox of the same transaction.
func (r *Repository) CancelConfirmed(ctx context.Context, gameID, userID uuid.UUID, record *models.CancellationRecord, payload []byte) (*models.Confirmation, error) {
	var out *models.Confirmation
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		slot, err := lockGameSlot(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if !slot.open() {
			return ErrGameNotOpen
		}

		existing, err := activeForUpdate(ctx, tx, gameID, userID)
		if err != nil {
			return err
		}
		if existing.Status != models.ConfirmationConfirmed {
			return fmt.Errorf("%w: %s -> CANCELLED", ErrInvalidTransition, existing.Status)
		}

		update := `UPDATE confirmations SET status = 'CANCELLED', updated_at = NOW()
			WHERE id = $1 RETURNING ` + confirmationColumns
		out, err = scanConfirmation(tx.QueryRowContext(ctx, update, existing.ID))
		if err != nil {
			return fmt.Errorf("failed to cancel confirmation: %w", err)
		}

		if err := adjustCounter(ctx, tx, gameID, existing.Position, -1); err != nil {
			return err
		}

		insert := `INSERT INTO cancellation_records (id, game_id, user_id, user_name, reason, reason_text, hours_before_kickoff, cancelled_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err = tx.ExecContext(ctx, insert, record.ID, record.GameID, record.UserID, record.UserName,
			string(record.Reason), record.ReasonText, record.HoursBeforeKickoff, record.CancelledAt)
		if err != nil {
			return fmt.Errorf("failed to insert cancellation record: %w", err)
		}

		return insertOutbox(ctx, tx, gameID, events.TypeSlotFreed, payload)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func activeForUpdate(ctx context.Context, tx *sql.Tx, gameID, userID uuid.UUID) (*models.Confirmation, error) {
	query := `SELECT ` + confirmationColumns + ` FROM confirmations
		WHERE game_id = $1 AND user_id = $2 AND status IN ('PENDING', 'CONFIRMED', 'WAITLIST')
		FOR UPDATE`

	c, err := scanConfirmation(tx.QueryRowContext(ctx, query, gameID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfirmationNotFound
		}
		return nil, fmt.Errorf("failed to select active confirmation: %w", err)
	}
	return c, nil
}

func adjustCounter(ctx context.Context, tx *sql.Tx, gameID uuid.UUID, pos models.PlayerPosition, delta int) error {
	column := "players_count"
	if pos == models.PositionGoalkeeper {
		column = "goalkeepers_count"
	}
	query := fmt.Sprintf(`UPDATE games SET %s = %s + $2, updated_at = NOW() WHERE id = $1 RETURNING %s`, column, column, column)
	var after int
	if err := tx.QueryRowContext(ctx, query, gameID, delta).Scan(&after); err != nil {
		return fmt.Errorf("failed to adjust %s: %w", column, err)
	}
	return checkCounter(column, gameID, after)
}

// checkCounter rejects a counter value that went negative so the
// surrounding transaction rolls back instead of persisting corruption.
func checkCounter(column string, gameID uuid.UUID, value int) error {
	if value >= 0 {
		return nil
	}
	return fmt.Errorf("%w: %s = %d for game %s", ErrCounterCorrupt, column, value, gameID)
}

func insertOutbox(ctx context.Context, tx *sql.Tx, gameID uuid.UUID, eventType string, payload []byte) error {
	query := `INSERT INTO game_outbox (id, game_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())`
	if _, err := tx.ExecContext(ctx, query, uuid.New(), gameID, eventType, payload); err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfirmation(row rowScanner) (*models.Confirmation, error) {
	var c models.Confirmation
	var position, status, payment string
	err := row.Scan(
		&c.ID, &c.GameID, &c.UserID, &c.UserName, &position, &status,
		&payment, &c.IsCasualPlayer, &c.Performance, &c.ConfirmedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Position = models.ParsePlayerPosition(position)
	c.Status = models.ParseConfirmationStatus(status)
	c.PaymentStatus = models.PaymentStatus(payment)
	return &c, nil
}
