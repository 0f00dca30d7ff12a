package waitlist

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

const entryColumns = `id, game_id, user_id, user_name, position, queue_position,
	status, added_at, notified_at, response_deadline`

// Repository implements waitlist data access. Queue positions are dense
// and 1-based per (game, position) pool, so every removal runs in a
// transaction that shifts the entries behind it.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new waitlist repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// Enqueue appends the user to the tail of the pool's queue. The game row
// is locked so two concurrent enqueues cannot claim the same position.
func (r *Repository) Enqueue(ctx context.Context, gameID, userID uuid.UUID, userName string, position models.PlayerPosition) (*models.WaitlistEntry, error) {
	var entry *models.WaitlistEntry
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT id FROM games WHERE id = $1 FOR UPDATE`, gameID); err != nil {
			return fmt.Errorf("failed to lock game row: %w", err)
		}

		var next int
		tail := `SELECT COALESCE(MAX(queue_position), 0) + 1 FROM waitlist_entries
			WHERE game_id = $1 AND position = $2 AND status IN ('WAITING', 'NOTIFIED')`
		if err := tx.QueryRowContext(ctx, tail, gameID, string(position)).Scan(&next); err != nil {
			return fmt.Errorf("failed to compute queue tail: %w", err)
		}

		insert := `INSERT INTO waitlist_entries (id, game_id, user_id, user_name, position, queue_position, status, added_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'WAITING', NOW())
			RETURNING ` + entryColumns
		var err error
		entry, err = scanEntry(tx.QueryRowContext(ctx, insert, uuid.New(), gameID, userID, userName, string(position), next))
		if err != nil {
			return fmt.Errorf("failed to enqueue waitlist entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetQueuedEntry returns the user's WAITING or NOTIFIED entry for the game.
func (r *Repository) GetQueuedEntry(ctx context.Context, gameID, userID uuid.UUID) (*models.WaitlistEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM waitlist_entries
		WHERE game_id = $1 AND user_id = $2 AND status IN ('WAITING', 'NOTIFIED')`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, gameID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	return entry, nil
}

// ListQueued returns the pool's queue in position order.
func (r *Repository) ListQueued(ctx context.Context, gameID uuid.UUID, position models.PlayerPosition) ([]models.WaitlistEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM waitlist_entries
		WHERE game_id = $1 AND position = $2 AND status IN ('WAITING', 'NOTIFIED')
		ORDER BY queue_position`

	rows, err := r.db.QueryContext(ctx, query, gameID, string(position))
	if err != nil {
		return nil, fmt.Errorf("failed to list queued entries: %w", err)
	}
	defer rows.Close()

	var out []models.WaitlistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan waitlist row: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ClaimNextForOffer moves the head WAITING entry of the pool to NOTIFIED.
// The whole decision runs under the game lock: if any NOTIFIED entry
// already exists for the pool the claim fails with ErrPromotionInFlight,
// which enforces the one-offer-at-a-time rule.
func (r *Repository) ClaimNextForOffer(ctx context.Context, gameID uuid.UUID, position models.PlayerPosition, notifiedAt, deadline time.Time, payloadFn func(models.WaitlistEntry) ([]byte, error)) (*models.WaitlistEntry, error) {
	var claimed *models.WaitlistEntry
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT id FROM games WHERE id = $1 FOR UPDATE`, gameID); err != nil {
			return fmt.Errorf("failed to lock game row: %w", err)
		}

		var inFlight int
		count := `SELECT COUNT(*) FROM waitlist_entries
			WHERE game_id = $1 AND position = $2 AND status = 'NOTIFIED'`
		if err := tx.QueryRowContext(ctx, count, gameID, string(position)).Scan(&inFlight); err != nil {
			return fmt.Errorf("failed to count in-flight offers: %w", err)
		}
		if inFlight > 0 {
			return ErrPromotionInFlight
		}

		head := `SELECT ` + entryColumns + ` FROM waitlist_entries
			WHERE game_id = $1 AND position = $2 AND status = 'WAITING'
			ORDER BY queue_position LIMIT 1 FOR UPDATE`
		entry, err := scanEntry(tx.QueryRowContext(ctx, head, gameID, string(position)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNothingQueued
			}
			return fmt.Errorf("failed to select queue head: %w", err)
		}

		update := `UPDATE waitlist_entries SET status = 'NOTIFIED', notified_at = $2, response_deadline = $3
			WHERE id = $1 RETURNING ` + entryColumns
		claimed, err = scanEntry(tx.QueryRowContext(ctx, update, entry.ID, notifiedAt, deadline))
		if err != nil {
			return fmt.Errorf("failed to mark entry notified: %w", err)
		}

		payload, err := payloadFn(*claimed)
		if err != nil {
			return err
		}
		return insertOutbox(ctx, tx, gameID, events.TypeWaitlistNotified, payload)
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Resolve finishes an entry's queue life in the given terminal status and
// compacts the positions behind it.
func (r *Repository) Resolve(ctx context.Context, entryID uuid.UUID, status models.WaitlistStatus, eventType string, payload []byte) (*models.WaitlistEntry, error) {
	var resolved *models.WaitlistEntry
	err := sqlutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := scanEntry(tx.QueryRowContext(ctx,
			`SELECT `+entryColumns+` FROM waitlist_entries WHERE id = $1 FOR UPDATE`, entryID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEntryNotFound
			}
			return fmt.Errorf("failed to lock waitlist entry: %w", err)
		}
		if !current.Status.Queued() {
			return fmt.Errorf("%w: entry already %s", ErrEntryNotFound, current.Status)
		}

		update := `UPDATE waitlist_entries SET status = $2, queue_position = 0
			WHERE id = $1 RETURNING ` + entryColumns
		resolved, err = scanEntry(tx.QueryRowContext(ctx, update, entryID, string(status)))
		if err != nil {
			return fmt.Errorf("failed to resolve waitlist entry: %w", err)
		}

		compact := `UPDATE waitlist_entries SET queue_position = queue_position - 1
			WHERE game_id = $1 AND position = $2 AND status IN ('WAITING', 'NOTIFIED') AND queue_position > $3`
		if _, err := tx.ExecContext(ctx, compact, current.GameID, string(current.Position), current.QueuePosition); err != nil {
			return fmt.Errorf("failed to compact queue positions: %w", err)
		}

		if eventType != "" {
			return insertOutbox(ctx, tx, current.GameID, eventType, payload)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// ReleaseOffer rolls a NOTIFIED entry back to WAITING at its original
// queue position. Used when a promotion loses the slot race.
func (r *Repository) ReleaseOffer(ctx context.Context, entryID uuid.UUID) error {
	query := `UPDATE waitlist_entries SET status = 'WAITING', notified_at = NULL, response_deadline = NULL
		WHERE id = $1 AND status = 'NOTIFIED'`

	res, err := r.db.ExecContext(ctx, query, entryID)
	if err != nil {
		return fmt.Errorf("failed to release offer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotNotified
	}
	return nil
}

// ListDueOffers returns every NOTIFIED entry whose response window closed
// by now, across all games.
func (r *Repository) ListDueOffers(ctx context.Context, now time.Time) ([]models.WaitlistEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM waitlist_entries
		WHERE status = 'NOTIFIED' AND response_deadline < $1
		ORDER BY response_deadline`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due offers: %w", err)
	}
	defer rows.Close()

	var out []models.WaitlistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan waitlist row: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
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

func scanEntry(row rowScanner) (*models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	var position, status string
	err := row.Scan(
		&e.ID, &e.GameID, &e.UserID, &e.UserName, &position, &e.QueuePosition,
		&status, &e.AddedAt, &e.NotifiedAt, &e.ResponseDeadline,
	)
	if err != nil {
		return nil, err
	}
	e.Position = models.ParsePlayerPosition(position)
	e.Status = models.ParseWaitlistStatus(status)
	return &e, nil
}
