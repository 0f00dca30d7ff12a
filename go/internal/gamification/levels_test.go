package gamification

import "testing"

func TestLevelForXP(t *testing.T) {
	table := DefaultLevelTable()

	tests := []struct {
		name string
		xp   int64
		want int
	}{
		{name: "zero xp", xp: 0, want: 0},
		{name: "negative xp clamps to zero", xp: -50, want: 0},
		{name: "just below first threshold", xp: 99, want: 0},
		{name: "first threshold", xp: 100, want: 1},
		{name: "mid tier", xp: 349, want: 1},
		{name: "second threshold", xp: 350, want: 2},
		{name: "deep mid table", xp: 7350, want: 6},
		{name: "just below top", xp: 52849, want: 9},
		{name: "top threshold", xp: 52850, want: 10},
		{name: "beyond top stays capped", xp: 100000, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.LevelForXP(tt.xp); got != tt.want {
				t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
			}
		})
	}
}

func TestLevelNames(t *testing.T) {
	table := DefaultLevelTable()

	tests := []struct {
		level int
		want  string
	}{
		{level: 0, want: "Rookie"},
		{level: 1, want: "Beginner"},
		{level: 5, want: "Skilled"},
		{level: 10, want: "Immortal"},
		{level: -1, want: "Unknown"},
		{level: 11, want: "Unknown"},
	}

	for _, tt := range tests {
		if got := table.Name(tt.level); got != tt.want {
			t.Errorf("Name(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestNewLevelTableValidation(t *testing.T) {
	tests := []struct {
		name  string
		tiers []LevelTier
	}{
		{name: "empty", tiers: nil},
		{
			name: "gap in levels",
			tiers: []LevelTier{
				{Level: 0, MinXP: 0, Name: "a"},
				{Level: 2, MinXP: 100, Name: "b"},
			},
		},
		{
			name: "level zero above zero xp",
			tiers: []LevelTier{
				{Level: 0, MinXP: 10, Name: "a"},
			},
		},
		{
			name: "non increasing thresholds",
			tiers: []LevelTier{
				{Level: 0, MinXP: 0, Name: "a"},
				{Level: 1, MinXP: 100, Name: "b"},
				{Level: 2, MinXP: 100, Name: "c"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLevelTable(tt.tiers); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestReload(t *testing.T) {
	table, err := Reload([]LevelTier{
		{Level: 0, MinXP: 0, Name: "Novice"},
		{Level: 1, MinXP: 50, Name: "Veteran"},
	})
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := table.LevelForXP(75); got != 1 {
		t.Errorf("LevelForXP(75) = %d, want 1", got)
	}
	if got := table.MaxLevel(); got != 1 {
		t.Errorf("MaxLevel() = %d, want 1", got)
	}
}

func TestNextLevelXP(t *testing.T) {
	table := DefaultLevelTable()

	next, ok := table.NextLevelXP(0)
	if !ok || next != 100 {
		t.Errorf("NextLevelXP(0) = %d, %v, want 100, true", next, ok)
	}
	next, ok = table.NextLevelXP(350)
	if !ok || next != 850 {
		t.Errorf("NextLevelXP(350) = %d, %v, want 850, true", next, ok)
	}
	if _, ok := table.NextLevelXP(60000); ok {
		t.Error("NextLevelXP at max level should report no next threshold")
	}
}

func TestProgress(t *testing.T) {
	table := DefaultLevelTable()

	if got := table.Progress(50); got != 0.5 {
		t.Errorf("Progress(50) = %v, want 0.5", got)
	}
	if got := table.Progress(-10); got != 0 {
		t.Errorf("Progress(-10) = %v, want 0", got)
	}
	if got := table.Progress(60000); got != 1 {
		t.Errorf("Progress(60000) = %v, want 1", got)
	}
}
