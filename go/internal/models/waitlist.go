package models

import (
	"time"

	"github.com/google/uuid"
)

// WaitlistStatus defines the state of a queued entry.
type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "WAITING"
	WaitlistNotified  WaitlistStatus = "NOTIFIED"
	WaitlistPromoted  WaitlistStatus = "PROMOTED"
	WaitlistExpired   WaitlistStatus = "EXPIRED"
	WaitlistCancelled WaitlistStatus = "CANCELLED"

	WaitlistUnknown WaitlistStatus = "UNKNOWN"
)

// ParseWaitlistStatus decodes a persisted waitlist status string.
func ParseWaitlistStatus(s string) WaitlistStatus {
	switch WaitlistStatus(s) {
	case WaitlistWaiting, WaitlistNotified, WaitlistPromoted, WaitlistExpired, WaitlistCancelled:
		return WaitlistStatus(s)
	default:
		return WaitlistUnknown
	}
}

// Queued reports whether the entry still holds a place in the queue.
func (s WaitlistStatus) Queued() bool {
	return s == WaitlistWaiting || s == WaitlistNotified
}

// WaitlistEntry is one user's place in a game's per-position FIFO queue.
// QueuePosition is dense and 1-based among queued entries of the same
// position pool, ordered by AddedAt.
type WaitlistEntry struct {
	ID       uuid.UUID `json:"id"`
	GameID   uuid.UUID `json:"game_id"`
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`

	Position      PlayerPosition `json:"position"`
	QueuePosition int            `json:"queue_position"`
	Status        WaitlistStatus `json:"status"`

	AddedAt          time.Time  `json:"added_at"`
	NotifiedAt       *time.Time `json:"notified_at,omitempty"`
	ResponseDeadline *time.Time `json:"response_deadline,omitempty"`
}

// ExpiredBy reports whether a NOTIFIED entry's response window has closed
// at the given instant.
func (w *WaitlistEntry) ExpiredBy(now time.Time) bool {
	return w.Status == WaitlistNotified && w.ResponseDeadline != nil && now.After(*w.ResponseDeadline)
}
