package models

import (
	"strings"
	"time"
)

// ItemType classifies a cataloged object.
type ItemType string

const (
	ItemTypeHome      ItemType = "HOME"
	ItemTypeHandheld  ItemType = "HANDHELD"
	ItemTypeGame      ItemType = "GAME"
	ItemTypeAccessory ItemType = "ACCESSORY"
	ItemTypeOther     ItemType = "OTHER"
)

// AllItemTypes returns all valid item types.
func AllItemTypes() []ItemType {
	return []ItemType{
		ItemTypeHome,
		ItemTypeHandheld,
		ItemTypeGame,
		ItemTypeAccessory,
		ItemTypeOther,
	}
}

// NormalizeItemType maps free-form type strings to our ItemType.
// Handles the Portuguese labels the identification model answers with
// ("Mesa", "Portátil", "Jogo", "Acessório") as well as our own wire values.
// Returns ItemTypeOther for unknown/empty values.
func NormalizeItemType(s string) ItemType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home", "mesa", "console de mesa":
		return ItemTypeHome
	case "handheld", "portátil", "portatil":
		return ItemTypeHandheld
	case "game", "jogo":
		return ItemTypeGame
	case "accessory", "acessório", "acessorio":
		return ItemTypeAccessory
	default:
		return ItemTypeOther
	}
}

// Condition represents the physical state of an item.
type Condition string

const (
	ConditionNew    Condition = "NEW"
	ConditionCIB    Condition = "CIB" // complete in box
	ConditionLoose  Condition = "LOOSE"
	ConditionBroken Condition = "BROKEN"
)

// AllConditions returns all valid conditions.
func AllConditions() []Condition {
	return []Condition{
		ConditionNew,
		ConditionCIB,
		ConditionLoose,
		ConditionBroken,
	}
}

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionCIB, ConditionLoose, ConditionBroken:
		return true
	}
	return false
}

// Label returns the marketplace-facing condition label used in valuation
// prompts. Brazilian marketplaces are the primary price source, so the
// labels are Portuguese.
func (c Condition) Label() string {
	switch c {
	case ConditionNew:
		return "Novo/Lacrado"
	case ConditionCIB:
		return "Completo na Caixa"
	case ConditionLoose:
		return "Item Solto"
	case ConditionBroken:
		return "Para Peças/Quebrado"
	default:
		return string(c)
	}
}

// Valuation is an externally sourced price estimate for one item.
type Valuation struct {
	Currency     string    `json:"currency"`
	MinPrice     float64   `json:"min_price"`
	MaxPrice     float64   `json:"max_price"`
	AveragePrice float64   `json:"average_price"`
	LastUpdated  time.Time `json:"last_updated"`
	Reasoning    string    `json:"reasoning"`
	Sources      []string  `json:"sources"`
}

// PriceAlert configures threshold-based change notifications for one item.
type PriceAlert struct {
	Enabled             bool    `json:"enabled"`
	ThresholdPercentage float64 `json:"threshold_percentage"` // [1,50]
	LastCheckedPrice    float64 `json:"last_checked_price"`
}

const (
	MinAlertThreshold = 1.0
	MaxAlertThreshold = 50.0
)

// Item is one cataloged physical object.
type Item struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Manufacturer string      `json:"manufacturer"`
	ItemType     ItemType    `json:"item_type"`
	Condition    Condition   `json:"condition"`
	ImageRef     string      `json:"image_ref"` // data URI or placeholder URL
	Valuation    *Valuation  `json:"valuation,omitempty"`
	PriceAlert   *PriceAlert `json:"price_alert,omitempty"`
	AddedAt      time.Time   `json:"added_at"`
}

// AveragePriceOrZero returns the valuation average, or 0 when unvalued.
func (i Item) AveragePriceOrZero() float64 {
	if i.Valuation == nil {
		return 0
	}
	return i.Valuation.AveragePrice
}
