package items

import (
	"errors"
	"fmt"
)

var ErrItemNotFound = errors.New("item not found")

// InsufficientStockError reports a requested quantity exceeding the live
// stock of an item. It is returned both when adding to a cart and when a
// checkout conditional decrement fails.
type InsufficientStockError struct {
	ItemID    string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}
