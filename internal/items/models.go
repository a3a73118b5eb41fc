package items

import "time"

// Item is a purchasable catalog entry. Prices are stored in the smallest
// currency unit.
type Item struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PriceCents    int64     `json:"price_cents"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewItem is the payload for creating a catalog entry.
type NewItem struct {
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description"`
	PriceCents    int64  `json:"price_cents" validate:"required,min=0"`
	StockQuantity int    `json:"stock_quantity" validate:"min=0"`
}

// UpdateItem carries the mutable fields of a catalog entry. Nil fields are
// left unchanged.
type UpdateItem struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	PriceCents    *int64  `json:"price_cents" validate:"omitempty,min=0"`
	StockQuantity *int    `json:"stock_quantity" validate:"omitempty,min=0"`
}
