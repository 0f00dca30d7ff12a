package events

import (
	"time"
)

// Event payload types shared between the confirmation, waitlist, schedule
// and gateway packages. Every payload travels through the outbox as JSON.

// Event type names as stored in the outbox and published on the bus.
const (
	TypeSlotFreed        = "SlotFreed"
	TypePlayerConfirmed  = "PlayerConfirmed"
	TypeWaitlistNotified = "WaitlistNotified"
	TypeWaitlistExpired  = "WaitlistExpired"
	TypeWaitlistPromoted = "WaitlistPromoted"
	TypeGameScheduled    = "GameScheduled"
	TypeScheduleConflict = "ScheduleConflict"
	TypeGameCancelled    = "GameCancelled"
	TypeGameFinished     = "GameFinished"
	TypePlayersSummoned  = "PlayersSummoned"
	TypeXPAwarded        = "XPAwarded"
)

// SlotFreedPayload is emitted when a confirmed player cancels. It is the
// sole trigger for waitlist promotion: the freed slot is exactly the one
// the vacating player held.
type SlotFreedPayload struct {
	GameID    string    `json:"game_id"`
	Position  string    `json:"position"`
	VacatedBy string    `json:"vacated_by"`
	FreedAt   time.Time `json:"freed_at"`
}

// PlayerConfirmedPayload is emitted when a player takes a capacity slot.
type PlayerConfirmedPayload struct {
	GameID      string    `json:"game_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Position    string    `json:"position"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// WaitlistNotifiedPayload is emitted when a queued entry is offered a
// freed slot and its response window starts.
type WaitlistNotifiedPayload struct {
	GameID           string    `json:"game_id"`
	UserID           string    `json:"user_id"`
	UserName         string    `json:"user_name"`
	Position         string    `json:"position"`
	NotifiedAt       time.Time `json:"notified_at"`
	ResponseDeadline time.Time `json:"response_deadline"`
}

// WaitlistExpiredPayload is emitted when a notified entry misses its
// response deadline.
type WaitlistExpiredPayload struct {
	GameID    string    `json:"game_id"`
	UserID    string    `json:"user_id"`
	Position  string    `json:"position"`
	ExpiredAt time.Time `json:"expired_at"`
}

// WaitlistPromotedPayload is emitted when a notified entry accepts and is
// confirmed into the freed slot.
type WaitlistPromotedPayload struct {
	GameID     string    `json:"game_id"`
	UserID     string    `json:"user_id"`
	Position   string    `json:"position"`
	PromotedAt time.Time `json:"promoted_at"`
}

// GameScheduledPayload is emitted when the recurrence scheduler
// materializes the next occurrence of a series.
type GameScheduledPayload struct {
	SourceGameID string    `json:"source_game_id"`
	NextGameID   string    `json:"next_game_id"`
	ScheduleID   string    `json:"schedule_id"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

// ScheduleConflictPayload is emitted when the next occurrence could not be
// created because the field is already booked.
type ScheduleConflictPayload struct {
	SourceGameID string `json:"source_game_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Conflicts    int    `json:"conflicts"`
}

// GameCancelledPayload is emitted when a game is cancelled outright.
// In-flight waitlist notifications for the game expire harmlessly.
type GameCancelledPayload struct {
	GameID      string    `json:"game_id"`
	CancelledBy string    `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// GameFinishedPayload is emitted when a result is recorded. It triggers
// the post-game pipeline: XP awards and next-occurrence scheduling.
type GameFinishedPayload struct {
	GameID     string    `json:"game_id"`
	Team1Score int       `json:"team1_score"`
	Team2Score int       `json:"team2_score"`
	MVPID      string    `json:"mvp_id,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// PlayersSummonedPayload is emitted after invitations fan out to group
// members for a newly scheduled game.
type PlayersSummonedPayload struct {
	GameID     string    `json:"game_id"`
	GroupID    string    `json:"group_id"`
	Invited    int       `json:"invited"`
	SummonedAt time.Time `json:"summoned_at"`
}

// XPAwardedPayload is emitted once per finished game after the
// gamification processor runs.
type XPAwardedPayload struct {
	GameID      string    `json:"game_id"`
	Players     int       `json:"players"`
	ProcessedAt time.Time `json:"processed_at"`
}
