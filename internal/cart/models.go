package cart

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrLineNotFound = errors.New("cart line not found")
)

// Line is one (item, quantity) pairing inside a cart. Name, UnitPriceCents
// and StockQuantity are joined live from the catalog; a cart never stores a
// price of its own.
type Line struct {
	ID             string `json:"id"`
	ItemID         string `json:"item_id"`
	Quantity       int    `json:"quantity"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	StockQuantity  int    `json:"stock_quantity"`
}

type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnavailableLine describes a cart line that was repaired on read: either
// removed because the item vanished or ran out of stock, or clamped down to
// the available quantity.
type UnavailableLine struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Removed   bool   `json:"removed"`
}

// Store is the cart contract the handlers depend on. All operations are
// scoped to a single user; there is no cross-user access path.
type Store interface {
	// GetCart returns the user's cart, creating an empty one if absent.
	// Stale lines are repaired (and persisted) before the cart is returned.
	GetCart(ctx context.Context, userID string) (Cart, []UnavailableLine, error)
	AddItem(ctx context.Context, userID, itemID string, quantity int) (Cart, error)
	UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (Cart, error)
	RemoveLine(ctx context.Context, userID, lineID string) (Cart, error)
}
