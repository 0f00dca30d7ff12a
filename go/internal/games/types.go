package games

import (
	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/models"
)

// CreateGameRequest contains the fields needed to create a game
type CreateGameRequest struct {
	ScheduleID   *uuid.UUID            `json:"schedule_id,omitempty"`
	GroupID      *uuid.UUID            `json:"group_id,omitempty"`
	GroupName    *string               `json:"group_name,omitempty"`
	OwnerID      uuid.UUID             `json:"owner_id"`
	OwnerName    string                `json:"owner_name"`
	LocationID   uuid.UUID             `json:"location_id"`
	LocationName string                `json:"location_name"`
	FieldID      uuid.UUID             `json:"field_id"`
	FieldName    string                `json:"field_name"`
	GameType     string                `json:"game_type"`
	Date         string                `json:"date"` // "2006-01-02"
	StartTime    string                `json:"start_time"`
	EndTime      string                `json:"end_time"`
	Recurrence   models.RecurrenceType `json:"recurrence"`

	MaxPlayers     int `json:"max_players"`
	MaxGoalkeepers int `json:"max_goalkeepers"`

	ConfirmationDeadlineHours  int `json:"confirmation_deadline_hours"`
	WaitlistAutoPromoteMinutes int `json:"waitlist_auto_promote_minutes"`
}

// RecordResultRequest contains the final score and MVP for a game
type RecordResultRequest struct {
	Team1Score int        `json:"team1_score"`
	Team2Score int        `json:"team2_score"`
	MVPID      *uuid.UUID `json:"mvp_id,omitempty"`
}

// CancelGameRequest contains who cancelled a game and why
type CancelGameRequest struct {
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason"`
}
