package capacity

import (
	"testing"

	"github.com/mcdev12/matchday/go/internal/models"
)

func TestHasRoom(t *testing.T) {
	tr := Tracker{MaxField: 10, MaxGoalkeepers: 2}

	tests := []struct {
		name     string
		pos      models.PlayerPosition
		field    int
		gk       int
		wantRoom bool
	}{
		{"empty field pool", models.PositionField, 0, 0, true},
		{"field pool one short", models.PositionField, 9, 2, true},
		{"field pool full", models.PositionField, 10, 0, false},
		{"field pool over", models.PositionField, 11, 0, false},
		{"empty gk pool", models.PositionGoalkeeper, 10, 0, true},
		{"gk pool one short", models.PositionGoalkeeper, 0, 1, true},
		{"gk pool full", models.PositionGoalkeeper, 0, 2, false},
		{"unknown position never fits", models.PositionUnknown, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.HasRoom(tt.pos, tt.field, tt.gk); got != tt.wantRoom {
				t.Errorf("HasRoom(%v, %d, %d) = %v, want %v", tt.pos, tt.field, tt.gk, got, tt.wantRoom)
			}
		})
	}
}

func TestHasRoomPoolsAreIndependent(t *testing.T) {
	tr := Tracker{MaxField: 1, MaxGoalkeepers: 1}

	// A full goalkeeper pool must not block field admissions.
	if !tr.HasRoom(models.PositionField, 0, 1) {
		t.Error("full gk pool blocked a field admission")
	}
	// And a full field pool must not block goalkeeper admissions.
	if !tr.HasRoom(models.PositionGoalkeeper, 1, 0) {
		t.Error("full field pool blocked a gk admission")
	}
}

func TestRemaining(t *testing.T) {
	tr := Tracker{MaxField: 10, MaxGoalkeepers: 2}

	if got := tr.Remaining(models.PositionField, 7, 0); got != 3 {
		t.Errorf("Remaining(field) = %d, want 3", got)
	}
	if got := tr.Remaining(models.PositionGoalkeeper, 0, 2); got != 0 {
		t.Errorf("Remaining(gk full) = %d, want 0", got)
	}
	// An overshot counter clamps to zero instead of going negative.
	if got := tr.Remaining(models.PositionGoalkeeper, 0, 5); got != 0 {
		t.Errorf("Remaining(gk overshoot) = %d, want 0", got)
	}
}
