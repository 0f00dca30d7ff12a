package games

import "errors"

var (
	// ErrGameNotFound is returned when no game exists for the given ID.
	ErrGameNotFound = errors.New("game not found")

	// ErrInvalidTransition is returned when a status update would move the
	// game backwards or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid game status transition")

	// ErrGameTerminal is returned when an operation targets a finished or
	// cancelled game.
	ErrGameTerminal = errors.New("game is in a terminal state")

	// ErrResultAlreadyProcessed is returned when XP for a finished game has
	// already been awarded.
	ErrResultAlreadyProcessed = errors.New("game result already processed")
)
