package models

import (
	"time"

	"github.com/google/uuid"
)

// CancellationReason classifies why a player gave up a confirmed spot.
type CancellationReason string

const (
	CancellationInjury      CancellationReason = "INJURY"
	CancellationWork        CancellationReason = "WORK"
	CancellationPersonal    CancellationReason = "PERSONAL"
	CancellationWeather     CancellationReason = "WEATHER"
	CancellationNoTransport CancellationReason = "NO_TRANSPORT"
	CancellationOther       CancellationReason = "OTHER"

	CancellationUnknown CancellationReason = "UNKNOWN"
)

// ParseCancellationReason decodes a persisted reason string.
func ParseCancellationReason(s string) CancellationReason {
	switch CancellationReason(s) {
	case CancellationInjury, CancellationWork, CancellationPersonal,
		CancellationWeather, CancellationNoTransport, CancellationOther:
		return CancellationReason(s)
	default:
		return CancellationUnknown
	}
}

// CancellationRecord is an append-only log entry written whenever a
// confirmed player cancels. HoursBeforeKickoff feeds reliability scoring.
type CancellationRecord struct {
	ID       uuid.UUID `json:"id"`
	GameID   uuid.UUID `json:"game_id"`
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`

	Reason CancellationReason `json:"reason"`
	// ReasonText carries free text when Reason is OTHER.
	ReasonText *string `json:"reason_text,omitempty"`

	HoursBeforeKickoff float64   `json:"hours_before_kickoff"`
	CancelledAt        time.Time `json:"cancelled_at"`
}
