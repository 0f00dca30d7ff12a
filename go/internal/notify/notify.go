package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/matchday/go/internal/events"
	"github.com/mcdev12/matchday/go/internal/gateway"
	"github.com/mcdev12/matchday/go/internal/models"
)

// GatewayNotifier pushes slot offers straight to the player's open
// WebSocket connections. Delivery is best effort: the durable copy of the
// offer rides the outbox, this path just shortens the latency for players
// who are online.
type GatewayNotifier struct {
	connections *gateway.ConnectionManager
}

func NewGatewayNotifier(cm *gateway.ConnectionManager) *GatewayNotifier {
	return &GatewayNotifier{connections: cm}
}

func (n *GatewayNotifier) OfferSlot(ctx context.Context, entry models.WaitlistEntry, game *models.Game) error {
	payload := events.WaitlistNotifiedPayload{
		GameID:   entry.GameID.String(),
		UserID:   entry.UserID.String(),
		UserName: entry.UserName,
		Position: string(entry.Position),
	}
	if entry.NotifiedAt != nil {
		payload.NotifiedAt = *entry.NotifiedAt
	}
	if entry.ResponseDeadline != nil {
		payload.ResponseDeadline = *entry.ResponseDeadline
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal offer payload: %w", err)
	}

	n.connections.BroadcastToUser(entry.GameID, entry.UserID.String(), &gateway.GameEvent{
		ID:        uuid.New().String(),
		GameID:    entry.GameID.String(),
		Type:      events.TypeWaitlistNotified,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	return nil
}

// LogNotifier records offers in the log only. Used where no gateway is
// wired, for example the sweeper running as a standalone process.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) OfferSlot(ctx context.Context, entry models.WaitlistEntry, game *models.Game) error {
	log.Info().
		Str("game_id", entry.GameID.String()).
		Str("user_id", entry.UserID.String()).
		Str("position", string(entry.Position)).
		Msg("slot offer issued")
	return nil
}
