package gamification

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/matchday/go/internal/models"
)

// XP values and per-game caps for each scoring category. Saves only count
// for goalkeepers.
const (
	presenceXP = 10
	goalXP     = 10
	assistXP   = 7
	saveXP     = 8
	winXP      = 20
	mvpXP      = 30

	maxCountedGoals   = 15
	maxCountedAssists = 10
	maxCountedSaves   = 30
)

// PerformanceStats is the per-player stat block the live-game layer writes
// into a confirmation's performance blob. Unknown fields are ignored.
type PerformanceStats struct {
	Goals   int  `json:"goals"`
	Assists int  `json:"assists"`
	Saves   int  `json:"saves"`
	Won     bool `json:"won"`
}

// ParsePerformance decodes a stored performance blob. A nil or empty blob
// yields zero stats, which still earns presence XP.
func ParsePerformance(raw json.RawMessage) (PerformanceStats, error) {
	var stats PerformanceStats
	if len(raw) == 0 {
		return stats, nil
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return PerformanceStats{}, fmt.Errorf("failed to parse performance stats: %w", err)
	}
	return stats, nil
}

// XPBreakdown itemizes the XP earned for one finished game.
type XPBreakdown struct {
	Presence int64 `json:"presence"`
	Goals    int64 `json:"goals"`
	Assists  int64 `json:"assists"`
	Saves    int64 `json:"saves"`
	Win      int64 `json:"win"`
	MVP      int64 `json:"mvp"`
}

// Total sums the breakdown. Never negative.
func (b XPBreakdown) Total() int64 {
	total := b.Presence + b.Goals + b.Assists + b.Saves + b.Win + b.MVP
	if total < 0 {
		return 0
	}
	return total
}

// CalculateXP scores one player's finished game. Every counted player earns
// presence XP; stat categories are capped before multiplying.
func CalculateXP(stats PerformanceStats, position models.PlayerPosition, mvp bool) XPBreakdown {
	breakdown := XPBreakdown{Presence: presenceXP}
	breakdown.Goals = int64(capCount(stats.Goals, maxCountedGoals)) * goalXP
	breakdown.Assists = int64(capCount(stats.Assists, maxCountedAssists)) * assistXP
	if position == models.PositionGoalkeeper {
		breakdown.Saves = int64(capCount(stats.Saves, maxCountedSaves)) * saveXP
	}
	if stats.Won {
		breakdown.Win = winXP
	}
	if mvp {
		breakdown.MVP = mvpXP
	}
	return breakdown
}

func capCount(n, cap int) int {
	if n < 0 {
		return 0
	}
	if n > cap {
		return cap
	}
	return n
}
