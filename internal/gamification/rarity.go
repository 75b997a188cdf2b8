package gamification

// Rarity groups items for display by price band.
type Rarity struct {
	Tier   string `json:"tier"`
	Weight int    `json:"weight"` // presentation weight, higher = flashier
}

// RarityFor assigns one of 5 fixed bands to a price. Band lower bounds are
// inclusive: 1500 is Epic, 1499 is Rare.
func RarityFor(price float64) Rarity {
	switch {
	case price >= 5000:
		return Rarity{Tier: "Legendary", Weight: 5}
	case price >= 1500:
		return Rarity{Tier: "Epic", Weight: 4}
	case price >= 400:
		return Rarity{Tier: "Rare", Weight: 3}
	case price >= 100:
		return Rarity{Tier: "Uncommon", Weight: 2}
	default:
		return Rarity{Tier: "Common", Weight: 1}
	}
}
