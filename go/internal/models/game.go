package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus defines the lifecycle status of a game.
type GameStatus string

const (
	GameStatusScheduled GameStatus = "SCHEDULED"
	GameStatusConfirmed GameStatus = "CONFIRMED"
	GameStatusLive      GameStatus = "LIVE"
	GameStatusFinished  GameStatus = "FINISHED"
	GameStatusCancelled GameStatus = "CANCELLED"

	// GameStatusUnknown marks a persisted value that no release of this
	// code ever wrote. Callers must treat it as corrupt data, not as a
	// default.
	GameStatusUnknown GameStatus = "UNKNOWN"
)

// ParseGameStatus decodes a persisted status string. Unrecognized values
// map to GameStatusUnknown so callers can tell corrupt documents apart
// from legitimately defaulted ones.
func ParseGameStatus(s string) GameStatus {
	switch GameStatus(s) {
	case GameStatusScheduled, GameStatusConfirmed, GameStatusLive, GameStatusFinished, GameStatusCancelled:
		return GameStatus(s)
	default:
		return GameStatusUnknown
	}
}

// RecurrenceType defines how a game repeats.
type RecurrenceType string

const (
	RecurrenceNone     RecurrenceType = "none"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceBiweekly RecurrenceType = "biweekly"
	RecurrenceMonthly  RecurrenceType = "monthly"

	RecurrenceUnknown RecurrenceType = "unknown"
)

// ParseRecurrenceType decodes a persisted recurrence string.
func ParseRecurrenceType(s string) RecurrenceType {
	switch RecurrenceType(s) {
	case RecurrenceNone, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return RecurrenceType(s)
	case "":
		return RecurrenceNone
	default:
		return RecurrenceUnknown
	}
}

// Game represents a single pickup game at a venue field. Capacity is split
// into two pools: field players and goalkeepers. PlayersCount and
// GoalkeepersCount are denormalized counters kept in lockstep with the
// confirmation rows inside the same transaction.
type Game struct {
	ID         uuid.UUID  `json:"id"`
	ScheduleID *uuid.UUID `json:"schedule_id,omitempty"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
	GroupName  *string    `json:"group_name,omitempty"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	OwnerName  string     `json:"owner_name"`

	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	FieldID      uuid.UUID `json:"field_id"`
	FieldName    string    `json:"field_name"`
	GameType     string    `json:"game_type"`

	// Date is the calendar date at midnight UTC; StartTime and EndTime are
	// zero-padded "HH:MM" wall-clock strings, so lexical order matches
	// temporal order.
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`

	Status     GameStatus     `json:"status"`
	Recurrence RecurrenceType `json:"recurrence"`

	MaxPlayers       int `json:"max_players"`
	MaxGoalkeepers   int `json:"max_goalkeepers"`
	PlayersCount     int `json:"players_count"`
	GoalkeepersCount int `json:"goalkeepers_count"`

	// ConfirmationDeadlineHours closes confirmations N hours before
	// kickoff; 0 means no deadline.
	ConfirmationDeadlineHours int `json:"confirmation_deadline_hours"`
	// WaitlistAutoPromoteMinutes is the response window granted to a
	// notified waitlist entry before it expires.
	WaitlistAutoPromoteMinutes int `json:"waitlist_auto_promote_minutes"`

	Team1Score  int        `json:"team1_score"`
	Team2Score  int        `json:"team2_score"`
	MVPID       *uuid.UUID `json:"mvp_id,omitempty"`
	XPProcessed bool       `json:"xp_processed"`

	CancelledBy  *uuid.UUID `json:"cancelled_by,omitempty"`
	CancelReason *string    `json:"cancel_reason,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Kickoff returns the full start timestamp in UTC, derived from Date and
// StartTime. Malformed times yield the bare date.
func (g *Game) Kickoff() time.Time {
	t, err := time.Parse("15:04", g.StartTime)
	if err != nil {
		return g.Date
	}
	return time.Date(g.Date.Year(), g.Date.Month(), g.Date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// ConfirmationDeadline returns the instant after which confirmations are
// closed, or nil when the game has no deadline configured.
func (g *Game) ConfirmationDeadline() *time.Time {
	if g.ConfirmationDeadlineHours <= 0 {
		return nil
	}
	d := g.Kickoff().Add(-time.Duration(g.ConfirmationDeadlineHours) * time.Hour)
	return &d
}

// IsTerminal reports whether the game can no longer change status.
func (s GameStatus) IsTerminal() bool {
	return s == GameStatusFinished || s == GameStatusCancelled
}

// CanTransitionTo enforces the monotonic lifecycle
// SCHEDULED -> CONFIRMED -> LIVE -> FINISHED, with CANCELLED reachable
// from any non-terminal state.
func (s GameStatus) CanTransitionTo(next GameStatus) bool {
	if s == next {
		return false
	}
	if next == GameStatusCancelled {
		return !s.IsTerminal()
	}
	order := map[GameStatus]int{
		GameStatusScheduled: 0,
		GameStatusConfirmed: 1,
		GameStatusLive:      2,
		GameStatusFinished:  3,
	}
	from, okFrom := order[s]
	to, okTo := order[next]
	return okFrom && okTo && to > from
}
