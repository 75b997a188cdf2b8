// Package gamification derives level, achievement, and rarity metrics from a
// collection's item list. Everything here is a pure function of its input:
// no stored state, recomputed on every read.
package gamification

import (
	"math"

	"github.com/colletr/colletr/backend/internal/models"
)

const (
	xpPerItem    = 500
	xpPerLevel   = 2500
	valueDivisor = 5
)

// UserLevel describes the collector's progress.
type UserLevel struct {
	Level           int     `json:"level"`
	Title           string  `json:"title"`
	XPInLevel       float64 `json:"xp_in_level"`
	XPToNextLevel   float64 `json:"xp_to_next_level"`
	ProgressPercent float64 `json:"progress_percent"`
}

// ComputeLevel derives the user level from an item list.
// XP is items*500 + floor(totalValue/5); levels are uniform 2500 XP bands.
func ComputeLevel(items []models.Item) UserLevel {
	totalValue := 0.0
	for _, item := range items {
		totalValue += item.AveragePriceOrZero()
	}

	xp := float64(len(items)*xpPerItem) + math.Floor(totalValue/valueDivisor)
	level := int(math.Floor(xp/xpPerLevel)) + 1

	xpInLevel := xp - float64(level-1)*xpPerLevel
	progress := xpInLevel / xpPerLevel * 100
	progress = math.Min(100, math.Max(0, progress))

	return UserLevel{
		Level:           level,
		Title:           titleFor(level),
		XPInLevel:       xpInLevel,
		XPToNextLevel:   xpPerLevel,
		ProgressPercent: progress,
	}
}

// titleFor is a step function of level; the highest matching band wins.
func titleFor(level int) string {
	switch {
	case level >= 50:
		return "8-bit Master"
	case level >= 30:
		return "Historian"
	case level >= 20:
		return "Curator"
	case level >= 10:
		return "Hunter"
	case level >= 5:
		return "Collector"
	default:
		return "Novice"
	}
}
