package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a social group that organizes recurring games.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupMember is one user's membership in a group. Members are the fan-out
// target for game invitations.
type GroupMember struct {
	GroupID   uuid.UUID `json:"group_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserPhoto *string   `json:"user_photo,omitempty"`
	// PreferredPosition seeds the position on summoned invites.
	PreferredPosition *PlayerPosition `json:"preferred_position,omitempty"`
	JoinedAt          time.Time       `json:"joined_at"`
}
