package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/matchday/go/internal/events"
)

// GameEvent is the wire format pushed to WebSocket clients.
type GameEvent struct {
	ID        string          `json:"id"`
	GameID    string          `json:"game_id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// knownEventTypes lists the outbox event types the gateway forwards.
// Anything else is dropped rather than pushed blind to clients.
var knownEventTypes = map[string]bool{
	events.TypeSlotFreed:        true,
	events.TypePlayerConfirmed:  true,
	events.TypeWaitlistNotified: true,
	events.TypeWaitlistExpired:  true,
	events.TypeWaitlistPromoted: true,
	events.TypeGameScheduled:    true,
	events.TypeScheduleConflict: true,
	events.TypeGameCancelled:    true,
	events.TypeGameFinished:     true,
	events.TypePlayersSummoned:  true,
	events.TypeXPAwarded:        true,
}

// ParseEventPayload decodes a game event's data into its typed payload.
func ParseEventPayload(event *GameEvent) (interface{}, error) {
	switch event.Type {
	case events.TypeSlotFreed:
		return unmarshalPayload[events.SlotFreedPayload](event.Data)
	case events.TypePlayerConfirmed:
		return unmarshalPayload[events.PlayerConfirmedPayload](event.Data)
	case events.TypeWaitlistNotified:
		return unmarshalPayload[events.WaitlistNotifiedPayload](event.Data)
	case events.TypeWaitlistExpired:
		return unmarshalPayload[events.WaitlistExpiredPayload](event.Data)
	case events.TypeWaitlistPromoted:
		return unmarshalPayload[events.WaitlistPromotedPayload](event.Data)
	case events.TypeGameScheduled:
		return unmarshalPayload[events.GameScheduledPayload](event.Data)
	case events.TypeScheduleConflict:
		return unmarshalPayload[events.ScheduleConflictPayload](event.Data)
	case events.TypeGameCancelled:
		return unmarshalPayload[events.GameCancelledPayload](event.Data)
	case events.TypeGameFinished:
		return unmarshalPayload[events.GameFinishedPayload](event.Data)
	case events.TypePlayersSummoned:
		return unmarshalPayload[events.PlayersSummonedPayload](event.Data)
	case events.TypeXPAwarded:
		return unmarshalPayload[events.XPAwardedPayload](event.Data)
	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
}

func unmarshalPayload[T any](data json.RawMessage) (T, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
