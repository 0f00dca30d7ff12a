package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is one row of the game_outbox table. Domain writers insert
// events in the same transaction as their state change; the worker relays
// them to the broker and stamps sent_at.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	GameID    uuid.UUID       `json:"game_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// EventPublisher relays outbox events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
	Close() error
}
