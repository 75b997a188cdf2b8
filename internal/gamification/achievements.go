package gamification

import (
	"strings"

	"github.com/colletr/colletr/backend/internal/models"
)

// Achievement is one named boolean predicate over the item list.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Unlocked    bool   `json:"unlocked"`
}

type achievementDef struct {
	id          string
	title       string
	description string
	imageURL    string
	predicate   func(s achievementState) bool
}

type achievementState struct {
	items         []models.Item
	totalValue    float64
	manufacturers map[string]struct{}
}

// The fixed catalog. Order is part of the contract: callers render these
// in definition order.
var achievementCatalog = []achievementDef{
	{
		id:          "start",
		title:       "INSERT COIN",
		description: "Add your first item.",
		imageURL:    "https://img.icons8.com/pixel-minecraft/100/egg.png",
		predicate: func(s achievementState) bool {
			return len(s.items) >= 1
		},
	},
	{
		id:          "stack",
		title:       "GAME STACK",
		description: "Collect 5 items.",
		imageURL:    "https://img.icons8.com/pixel-minecraft/100/book.png",
		predicate: func(s achievementState) bool {
			return len(s.items) >= 5
		},
	},
	{
		id:          "nintendo",
		title:       "SUPER FANBOY",
		description: "Own 3 Nintendo items.",
		imageURL:    "https://img.icons8.com/pixel-minecraft/100/red-mushroom.png",
		predicate: func(s achievementState) bool {
			return countByBrand(s.items, "nintendo") >= 3
		},
	},
	{
		id:          "sega",
		title:       "BLAST PROCESS",
		description: "Own 3 Sega items.",
		imageURL:    "https://img.icons8.com/pixel-minecraft/100/gold-ring.png",
		predicate: func(s achievementState) bool {
			return countByBrand(s.items, "sega") >= 3
		},
	},
	{
		id:          "sony",
		title:       "PLAYSTATION",
		description: "Own 3 Sony items.",
		imageURL:    "https://img.icons8.com/pixel-minecraft/100/game-controller.png",
		predicate: func(s achievementState) bool {
			return countByBrand(s.items, "sony") >= 3
		},
	},
	{
		id:          "rich",
		title:       "HIGH SCORE",
		description: "One item valued at R$ 2,000 or more.",
		imageURL:    "https://img.icons8.com/pixel-minecraft/100/diamond.png",
		predicate: func(s achievementState) bool {
			for _, item := range s.items {
				if item.AveragePriceOrZero() >= 2000 {
					return true
				}
			}
			return false
		},
	},
	{
		id:          "hoarder",
		title:       "8-BIT MUSEUM",
		description: "Total collection value of R$ 10,000 or more.",
		imageURL:    "https://img.icons8.com/pixel-minecraft/100/chest.png",
		predicate: func(s achievementState) bool {
			return s.totalValue >= 10000
		},
	},
	{
		id:          "variety",
		title:       "MULTI-PLATFORM",
		description: "Items from 4 different manufacturers.",
		imageURL:    "https://img.icons8.com/pixel-minecraft/100/compass.png",
		predicate: func(s achievementState) bool {
			return len(s.manufacturers) >= 4
		},
	},
}

// ComputeAchievements evaluates the fixed catalog against an item list.
// Deterministic and order-preserving for identical input.
func ComputeAchievements(items []models.Item) []Achievement {
	state := achievementState{
		items:         items,
		manufacturers: make(map[string]struct{}),
	}
	for _, item := range items {
		state.totalValue += item.AveragePriceOrZero()
		if m := strings.ToLower(strings.TrimSpace(item.Manufacturer)); m != "" {
			state.manufacturers[m] = struct{}{}
		}
	}

	result := make([]Achievement, 0, len(achievementCatalog))
	for _, def := range achievementCatalog {
		result = append(result, Achievement{
			ID:          def.id,
			Title:       def.title,
			Description: def.description,
			ImageURL:    def.imageURL,
			Unlocked:    def.predicate(state),
		})
	}
	return result
}

// countByBrand counts items whose manufacturer contains brand,
// case-insensitive. Containment, not exact match: "NINTENDO Co" counts.
func countByBrand(items []models.Item, brand string) int {
	n := 0
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Manufacturer), brand) {
			n++
		}
	}
	return n
}
