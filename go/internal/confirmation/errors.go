package confirmation

import "errors"

var (
	// ErrCapacityFull is returned when the requested position pool has no
	// free slot left.
	ErrCapacityFull = errors.New("capacity full for position")

	// ErrAlreadyConfirmed is returned when the user already holds a
	// confirmed slot for the game.
	ErrAlreadyConfirmed = errors.New("user already confirmed for game")

	// ErrConfirmationNotFound is returned when no active confirmation
	// exists for the (game, user) pair.
	ErrConfirmationNotFound = errors.New("confirmation not found")

	// ErrInvalidTransition is returned when the requested change is not a
	// legal confirmation state transition.
	ErrInvalidTransition = errors.New("invalid confirmation transition")

	// ErrDeadlinePassed is returned when the game's confirmation deadline
	// is behind the current time.
	ErrDeadlinePassed = errors.New("confirmation deadline passed")

	// ErrGameNotOpen is returned when the game is live, finished or
	// cancelled and no longer accepts confirmation changes.
	ErrGameNotOpen = errors.New("game not open for confirmations")

	// ErrCounterCorrupt is returned when a capacity counter would go
	// negative. The counters only move together with confirmation rows
	// inside one transaction, so a negative value is a bug, and the
	// transaction that observed it is rolled back.
	ErrCounterCorrupt = errors.New("capacity counter corrupt")
)
