package gamification

import "fmt"

// LevelTier maps a level to the minimum lifetime XP that unlocks it.
type LevelTier struct {
	Level int
	MinXP int64
	Name  string
}

// LevelTable resolves lifetime XP to a level. Tables are immutable once
// built; swapping rules means constructing a new table, never mutating a
// shared one.
type LevelTable struct {
	tiers []LevelTier
}

// NewLevelTable builds a table from tiers ordered by level. Levels must be
// contiguous from 0 and minimum XP must be strictly increasing.
func NewLevelTable(tiers []LevelTier) (*LevelTable, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("level table requires at least one tier")
	}
	for i, tier := range tiers {
		if tier.Level != i {
			return nil, fmt.Errorf("level table tiers must be contiguous from 0, got level %d at index %d", tier.Level, i)
		}
		if i == 0 {
			if tier.MinXP != 0 {
				return nil, fmt.Errorf("level 0 must start at 0 xp, got %d", tier.MinXP)
			}
			continue
		}
		if tier.MinXP <= tiers[i-1].MinXP {
			return nil, fmt.Errorf("level %d min xp %d must exceed level %d min xp %d",
				tier.Level, tier.MinXP, tiers[i-1].Level, tiers[i-1].MinXP)
		}
	}
	out := make([]LevelTier, len(tiers))
	copy(out, tiers)
	return &LevelTable{tiers: out}, nil
}

// DefaultLevelTable returns the standard eleven-tier progression.
func DefaultLevelTable() *LevelTable {
	table, err := NewLevelTable([]LevelTier{
		{Level: 0, MinXP: 0, Name: "Rookie"},
		{Level: 1, MinXP: 100, Name: "Beginner"},
		{Level: 2, MinXP: 350, Name: "Amateur"},
		{Level: 3, MinXP: 850, Name: "Regular"},
		{Level: 4, MinXP: 1850, Name: "Experienced"},
		{Level: 5, MinXP: 3850, Name: "Skilled"},
		{Level: 6, MinXP: 7350, Name: "Professional"},
		{Level: 7, MinXP: 12850, Name: "Expert"},
		{Level: 8, MinXP: 20850, Name: "Master"},
		{Level: 9, MinXP: 32850, Name: "Legend"},
		{Level: 10, MinXP: 52850, Name: "Immortal"},
	})
	if err != nil {
		panic(err)
	}
	return table
}

// Reload builds a fresh table from updated tiers. Callers swap the new
// table in where they hold the old one; existing tables are never mutated.
func Reload(tiers []LevelTier) (*LevelTable, error) {
	return NewLevelTable(tiers)
}

// LevelForXP returns the highest level whose threshold the given lifetime
// XP meets. Negative XP clamps to level 0.
func (t *LevelTable) LevelForXP(xp int64) int {
	level := 0
	for _, tier := range t.tiers {
		if xp < tier.MinXP {
			break
		}
		level = tier.Level
	}
	return level
}

// Name returns the display name for a level, or "Unknown" for levels
// outside the table.
func (t *LevelTable) Name(level int) string {
	if level < 0 || level >= len(t.tiers) {
		return "Unknown"
	}
	return t.tiers[level].Name
}

// MinXPForLevel returns the XP threshold that unlocks a level.
func (t *LevelTable) MinXPForLevel(level int) (int64, error) {
	if level < 0 || level >= len(t.tiers) {
		return 0, fmt.Errorf("level %d is outside the table", level)
	}
	return t.tiers[level].MinXP, nil
}

// NextLevelXP returns the threshold for the level above the one the given
// XP resolves to. The second return is false at the top of the table.
func (t *LevelTable) NextLevelXP(xp int64) (int64, bool) {
	level := t.LevelForXP(xp)
	if level+1 >= len(t.tiers) {
		return 0, false
	}
	return t.tiers[level+1].MinXP, true
}

// Progress reports how far the given XP sits between its current level
// threshold and the next, in [0, 1]. Maxed-out players report 1.
func (t *LevelTable) Progress(xp int64) float64 {
	if xp < 0 {
		return 0
	}
	level := t.LevelForXP(xp)
	next, ok := t.NextLevelXP(xp)
	if !ok {
		return 1
	}
	floor := t.tiers[level].MinXP
	return float64(xp-floor) / float64(next-floor)
}

// MaxLevel returns the highest level the table defines.
func (t *LevelTable) MaxLevel() int {
	return t.tiers[len(t.tiers)-1].Level
}
