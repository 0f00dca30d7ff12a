package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a player profile. XP and Level are maintained by the
// gamification processor after each finished game.
type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    *string   `json:"photo_url,omitempty"`

	XP    int64 `json:"xp"`
	Level int   `json:"level"`

	GamesPlayed    int `json:"games_played"`
	GamesCancelled int `json:"games_cancelled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
