package events

import (
	"encoding/json"
	"time"
)

// Envelope is the wire frame every published event travels in. Consumers
// route on EventType and unmarshal Payload into the matching payload type.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	GameID    string          `json:"gameId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
