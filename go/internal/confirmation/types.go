package confirmation

import (
	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/models"
)

// JoinRequest identifies a player joining or confirming for a game
type JoinRequest struct {
	GameID   uuid.UUID             `json:"game_id"`
	UserID   uuid.UUID             `json:"user_id"`
	UserName string                `json:"user_name"`
	Position models.PlayerPosition `json:"position"`
}

// AcceptOutcome tells the caller where an accepted player ended up
type AcceptOutcome struct {
	Confirmation *models.Confirmation  `json:"confirmation"`
	WaitlistedAt *models.WaitlistEntry `json:"waitlisted_at,omitempty"`
}

// Waitlisted reports whether the player landed on the queue instead of a
// capacity slot.
func (o AcceptOutcome) Waitlisted() bool {
	return o.WaitlistedAt != nil
}

// CancelRequest carries the reason a confirmed player gives up their slot
type CancelRequest struct {
	GameID     uuid.UUID                 `json:"game_id"`
	UserID     uuid.UUID                 `json:"user_id"`
	Reason     models.CancellationReason `json:"reason"`
	ReasonText *string                   `json:"reason_text,omitempty"`
}
