package models

// CreateCollectionRequest creates a new collection.
type CreateCollectionRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

// UpdateCollectionRequest edits collection metadata. Nil fields are untouched.
type UpdateCollectionRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Category    *Category `json:"category"`
}

// AddItemRequest adds one item to a collection. ID and AddedAt are assigned
// by the store.
type AddItemRequest struct {
	Name         string     `json:"name" binding:"required"`
	Manufacturer string     `json:"manufacturer"`
	ItemType     ItemType   `json:"item_type"`
	Condition    Condition  `json:"condition"`
	ImageRef     string     `json:"image_ref"`
	Valuation    *Valuation `json:"valuation,omitempty"`
}

// UpdateItemRequest replaces item fields in place. Nil fields are untouched.
type UpdateItemRequest struct {
	Name         *string    `json:"name"`
	Manufacturer *string    `json:"manufacturer"`
	ItemType     *ItemType  `json:"item_type"`
	Condition    *Condition `json:"condition"`
	ImageRef     *string    `json:"image_ref"`
	Valuation    *Valuation `json:"valuation,omitempty"`
}

// SetPriceAlertRequest attaches or overwrites a price alert on one item.
type SetPriceAlertRequest struct {
	Enabled             bool    `json:"enabled"`
	ThresholdPercentage float64 `json:"threshold_percentage" binding:"required"`
	LastCheckedPrice    float64 `json:"last_checked_price"`
}

// IdentifyRequest carries a photographed item to the identification model.
type IdentifyRequest struct {
	ImageData    string   `json:"image_data" binding:"required"` // base64 encoded
	CategoryHint Category `json:"category_hint"`
}

// IdentifyResponse is the identification result.
type IdentifyResponse struct {
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	ItemType     ItemType `json:"item_type"`
}

// ValuateRequest asks the pricing oracle for a market estimate.
type ValuateRequest struct {
	ItemName  string    `json:"item_name" binding:"required"`
	Condition Condition `json:"condition"`
}

// CategoryRequest creates or renames a custom category.
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}
