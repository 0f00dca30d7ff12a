package gamification

import (
	"testing"

	"github.com/mcdev12/matchday/go/internal/models"
)

func TestCalculateXP(t *testing.T) {
	tests := []struct {
		name     string
		stats    PerformanceStats
		position models.PlayerPosition
		mvp      bool
		want     int64
	}{
		{
			name:     "presence only",
			stats:    PerformanceStats{},
			position: models.PositionField,
			want:     10,
		},
		{
			name:     "goals count up to the cap",
			stats:    PerformanceStats{Goals: 20},
			position: models.PositionField,
			want:     10 + 15*10,
		},
		{
			name:     "assists count up to the cap",
			stats:    PerformanceStats{Assists: 12},
			position: models.PositionField,
			want:     10 + 10*7,
		},
		{
			name:     "saves ignored for field players",
			stats:    PerformanceStats{Saves: 12},
			position: models.PositionField,
			want:     10,
		},
		{
			name:     "saves count for goalkeepers up to the cap",
			stats:    PerformanceStats{Saves: 35},
			position: models.PositionGoalkeeper,
			want:     10 + 30*8,
		},
		{
			name:     "win bonus",
			stats:    PerformanceStats{Won: true},
			position: models.PositionField,
			want:     10 + 20,
		},
		{
			name:     "mvp bonus",
			stats:    PerformanceStats{},
			position: models.PositionField,
			mvp:      true,
			want:     10 + 30,
		},
		{
			name:     "negative counts clamp to zero",
			stats:    PerformanceStats{Goals: -3, Assists: -1},
			position: models.PositionField,
			want:     10,
		},
		{
			name:     "everything together",
			stats:    PerformanceStats{Goals: 2, Assists: 1, Saves: 4, Won: true},
			position: models.PositionGoalkeeper,
			mvp:      true,
			want:     10 + 2*10 + 1*7 + 4*8 + 20 + 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateXP(tt.stats, tt.position, tt.mvp).Total()
			if got != tt.want {
				t.Errorf("CalculateXP total = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParsePerformance(t *testing.T) {
	stats, err := ParsePerformance(nil)
	if err != nil {
		t.Fatalf("ParsePerformance(nil) returned error: %v", err)
	}
	if stats != (PerformanceStats{}) {
		t.Errorf("ParsePerformance(nil) = %+v, want zero stats", stats)
	}

	stats, err = ParsePerformance([]byte(`{"goals":3,"assists":1,"won":true,"rating":8.5}`))
	if err != nil {
		t.Fatalf("ParsePerformance returned error: %v", err)
	}
	if stats.Goals != 3 || stats.Assists != 1 || !stats.Won {
		t.Errorf("ParsePerformance = %+v, want goals 3 assists 1 won", stats)
	}

	if _, err := ParsePerformance([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed performance blob")
	}
}
