package users

// CreateUserRequest contains the fields needed to create a user
type CreateUserRequest struct {
	DisplayName string  `json:"display_name"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

// UpdateUserRequest contains profile fields a user may change
type UpdateUserRequest struct {
	DisplayName string  `json:"display_name"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

// XPAward is one game's worth of progression for a user
type XPAward struct {
	XP            int64 `json:"xp"`
	Level         int   `json:"level"`
	PlayedGame    bool  `json:"played_game"`
	CancelledGame bool  `json:"cancelled_game"`
}
