// Package conflict detects double-bookings of a venue field. Time ranges
// are half-open intervals, so back-to-back games sharing a boundary do
// not conflict.
package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/matchday/go/internal/models"
)

// GamesFinder is what the detector needs from the games repository.
type GamesFinder interface {
	ListByFieldAndDate(ctx context.Context, fieldID uuid.UUID, date time.Time) ([]models.Game, error)
}

// Detector checks a candidate slot against the games already booked at a
// field.
type Detector struct {
	games GamesFinder
}

// NewDetector creates a conflict Detector.
func NewDetector(games GamesFinder) *Detector {
	return &Detector{games: games}
}

// Query describes the candidate slot. ExcludeGameID skips the game being
// edited, if any.
type Query struct {
	FieldID       uuid.UUID
	Date          time.Time
	StartTime     string
	EndTime       string
	ExcludeGameID *uuid.UUID
}

// FindConflicts returns every non-cancelled game at the field whose time
// range intersects the query's.
func (d *Detector) FindConflicts(ctx context.Context, q Query) ([]models.Game, error) {
	existing, err := d.games.ListByFieldAndDate(ctx, q.FieldID, q.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for conflict check: %w", err)
	}

	var conflicts []models.Game
	for _, g := range existing {
		if q.ExcludeGameID != nil && g.ID == *q.ExcludeGameID {
			continue
		}
		if g.Status == models.GameStatusCancelled {
			continue
		}
		if Overlaps(g.StartTime, g.EndTime, q.StartTime, q.EndTime) {
			conflicts = append(conflicts, g)
		}
	}
	return conflicts, nil
}

// Overlaps reports whether two half-open [start, end) wall-clock ranges
// intersect. Times are zero-padded "HH:MM" strings, so lexical comparison
// matches temporal order.
func Overlaps(startA, endA, startB, endB string) bool {
	return startA < endB && endA > startB
}
