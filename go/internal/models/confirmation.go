package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PlayerPosition identifies which capacity pool a confirmation occupies.
type PlayerPosition string

const (
	PositionGoalkeeper PlayerPosition = "GOALKEEPER"
	PositionField      PlayerPosition = "FIELD"

	PositionUnknown PlayerPosition = "UNKNOWN"
)

// ParsePlayerPosition decodes a persisted position string.
func ParsePlayerPosition(s string) PlayerPosition {
	switch PlayerPosition(s) {
	case PositionGoalkeeper, PositionField:
		return PlayerPosition(s)
	default:
		return PositionUnknown
	}
}

// ConfirmationStatus defines the state of a player's relationship to one game.
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "PENDING"
	ConfirmationConfirmed ConfirmationStatus = "CONFIRMED"
	ConfirmationWaitlist  ConfirmationStatus = "WAITLIST"
	ConfirmationCancelled ConfirmationStatus = "CANCELLED"

	ConfirmationUnknown ConfirmationStatus = "UNKNOWN"
)

// ParseConfirmationStatus decodes a persisted confirmation status string.
func ParseConfirmationStatus(s string) ConfirmationStatus {
	switch ConfirmationStatus(s) {
	case ConfirmationPending, ConfirmationConfirmed, ConfirmationWaitlist, ConfirmationCancelled:
		return ConfirmationStatus(s)
	default:
		return ConfirmationUnknown
	}
}

// Active reports whether the confirmation still binds the (game, user)
// pair. At most one active confirmation may exist per pair.
func (s ConfirmationStatus) Active() bool {
	return s == ConfirmationPending || s == ConfirmationConfirmed || s == ConfirmationWaitlist
}

// PaymentStatus tracks the player's payment for the game. It rides along
// with the confirmation and must survive every state transition.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentWaived  PaymentStatus = "WAIVED"
)

// Confirmation is one attendance attempt for a (game, user) pair. A user
// may hold several CANCELLED rows for the same game (prior attempts) but
// at most one row in an active status.
type Confirmation struct {
	ID       uuid.UUID `json:"id"`
	GameID   uuid.UUID `json:"game_id"`
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`

	Position PlayerPosition     `json:"position"`
	Status   ConfirmationStatus `json:"status"`

	PaymentStatus  PaymentStatus `json:"payment_status"`
	IsCasualPlayer bool          `json:"is_casual_player"`

	// Performance holds post-game stats (goals, cards, ratings) written by
	// the live-game layer. Opaque to the confirmation lifecycle, but it is
	// preserved across transitions.
	Performance json.RawMessage `json:"performance,omitempty"`

	// ConfirmedAt orders CONFIRMED entries within a game.
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
