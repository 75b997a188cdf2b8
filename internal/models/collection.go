package models

import (
	"time"
)

// Category classifies a Collection. The built-in values below are fixed;
// user-defined custom categories extend the set, referenced by name.
type Category string

const (
	CategoryConsoles    Category = "CONSOLES"
	CategoryGames       Category = "GAMES"
	CategoryAccessories Category = "ACCESSORIES"
	CategoryMixed       Category = "MIXED"
)

// BuiltinCategories returns the fixed category values.
func BuiltinCategories() []Category {
	return []Category{
		CategoryConsoles,
		CategoryGames,
		CategoryAccessories,
		CategoryMixed,
	}
}

// IsBuiltin reports whether c is one of the fixed category values.
func (c Category) IsBuiltin() bool {
	switch c {
	case CategoryConsoles, CategoryGames, CategoryAccessories, CategoryMixed:
		return true
	}
	return false
}

// Collection is a named, user-created grouping of items sharing a category.
// Items are kept newest-first.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
}

// TotalValue sums the average valuation of every item in the collection.
func (c Collection) TotalValue() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.AveragePriceOrZero()
	}
	return total
}

// CustomCategory is a user-defined extension of the category set.
// Collections reference it by name, not by id.
type CustomCategory struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ValueBucket is one slice of a stats breakdown.
type ValueBucket struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// CollectionStats summarizes one collection for the dashboard.
type CollectionStats struct {
	TotalItems     int           `json:"total_items"`
	ValuedItems    int           `json:"valued_items"`
	TotalValue     float64       `json:"total_value"`
	ByManufacturer []ValueBucket `json:"by_manufacturer"`
	ByType         []ValueBucket `json:"by_type"`
}
