package orders

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyCart means checkout was attempted with no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

const (
	StatusCreated    = "created"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// OrderLine is an immutable snapshot of one purchased item: the price is the
// catalog price at the moment of purchase and never changes afterwards.
type OrderLine struct {
	ItemID         string `json:"item_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Status     string      `json:"status"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int64       `json:"total_cents"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Store is the order ledger contract the handlers depend on.
type Store interface {
	// CreateOrder runs the whole checkout as one all-or-nothing unit:
	// validate the cart against live stock, decrement stock, write the
	// order snapshot and clear the cart. On any failure no state changes.
	CreateOrder(ctx context.Context, userID string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

// Total sums unit price times quantity over the given lines.
func Total(lines []OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.UnitPriceCents * int64(l.Quantity)
	}
	return total
}
