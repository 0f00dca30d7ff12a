package models

import (
	"time"

	"github.com/google/uuid"
)

// CapacityDefaults holds the per-pool capacity a schedule template stamps
// onto every game it materializes. Stored as JSONB.
type CapacityDefaults struct {
	MaxPlayers     int `json:"max_players"`
	MaxGoalkeepers int `json:"max_goalkeepers"`
}

// ScheduleTemplate defines a recurring game series. It is created lazily
// from the first recurring game and is authoritative over venue, time and
// capacity for every subsequent occurrence.
type ScheduleTemplate struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	Name      string    `json:"name"`

	GroupID   *uuid.UUID `json:"group_id,omitempty"`
	GroupName *string    `json:"group_name,omitempty"`

	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	FieldID      uuid.UUID `json:"field_id"`
	FieldName    string    `json:"field_name"`
	FieldType    string    `json:"field_type"`

	Recurrence RecurrenceType `json:"recurrence"`
	// DayOfWeek is the weekday the series falls on.
	DayOfWeek time.Weekday `json:"day_of_week"`
	// StartTime is a zero-padded "HH:MM" wall-clock string.
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`

	Capacity CapacityDefaults `json:"capacity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EndTime derives the template's end wall-clock string from StartTime and
// DurationMinutes.
func (t *ScheduleTemplate) EndTime() string {
	start, err := time.Parse("15:04", t.StartTime)
	if err != nil {
		return t.StartTime
	}
	return start.Add(time.Duration(t.DurationMinutes) * time.Minute).Format("15:04")
}
