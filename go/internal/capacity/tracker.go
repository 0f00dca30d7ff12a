// Package capacity decides whether a game has room for another confirmed
// player, split by position pool. It is a total function over non-negative
// integers with no side effects; admission control calls it against the
// latest committed counters inside the same transaction that writes the
// confirmation.
package capacity

import "github.com/mcdev12/matchday/go/internal/models"

// Tracker holds a game's configured maxima per pool.
type Tracker struct {
	MaxField       int
	MaxGoalkeepers int
}

// FromGame builds a Tracker from a game's capacity config.
func FromGame(g *models.Game) Tracker {
	return Tracker{
		MaxField:       g.MaxPlayers,
		MaxGoalkeepers: g.MaxGoalkeepers,
	}
}

// HasRoom reports whether one more confirmation fits in the given pool,
// given the current confirmed counts.
func (t Tracker) HasRoom(pos models.PlayerPosition, fieldCount, goalkeeperCount int) bool {
	switch pos {
	case models.PositionGoalkeeper:
		return goalkeeperCount < t.MaxGoalkeepers
	case models.PositionField:
		return fieldCount < t.MaxField
	default:
		return false
	}
}

// Remaining returns how many slots are left in the given pool. Never
// negative.
func (t Tracker) Remaining(pos models.PlayerPosition, fieldCount, goalkeeperCount int) int {
	var r int
	switch pos {
	case models.PositionGoalkeeper:
		r = t.MaxGoalkeepers - goalkeeperCount
	case models.PositionField:
		r = t.MaxField - fieldCount
	}
	if r < 0 {
		return 0
	}
	return r
}
