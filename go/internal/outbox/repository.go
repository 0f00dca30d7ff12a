package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository reads and settles game_outbox rows. Fetch and mark run on the
// worker's transaction so a crashed relay leaves rows unsent.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FetchUnsentTx grabs a batch of unsent events in insertion order. SKIP
// LOCKED lets multiple workers drain the table without blocking each other.
func (r *Repository) FetchUnsentTx(ctx context.Context, tx *sql.Tx, limit int) ([]OutboxEvent, error) {
	query := `SELECT id, game_id, event_type, payload, created_at, sent_at
		FROM game_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`

	rows, err := tx.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.GameID, &e.EventType, &e.Payload, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkSentTx stamps sent_at on the given events.
func (r *Repository) MarkSentTx(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error {
	query := `UPDATE game_outbox SET sent_at = NOW() WHERE id = ANY($1)`
	if _, err := tx.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to mark outbox events sent: %w", err)
	}
	return nil
}

// PendingCount reports how many events are waiting to be relayed.
func (r *Repository) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_outbox WHERE sent_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending outbox events: %w", err)
	}
	return n, nil
}
