package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairKeepsHealthyLines(t *testing.T) {
	lines := []Line{
		{ID: "l1", ItemID: "a", Quantity: 2, Name: "Apple", StockQuantity: 5},
		{ID: "l2", ItemID: "b", Quantity: 1, Name: "Banana", StockQuantity: 1},
	}

	kept, unavailable := Repair(lines, func(string) bool { return true })
	assert.Len(t, kept, 2)
	assert.Empty(t, unavailable)
	assert.Equal(t, 2, kept[0].Quantity)
}

func TestRepairRemovesMissingItem(t *testing.T) {
	lines := []Line{
		{ID: "l1", ItemID: "gone", Quantity: 2, Name: "Ghost"},
	}

	kept, unavailable := Repair(lines, func(string) bool { return false })
	assert.Empty(t, kept)
	assert.Len(t, unavailable, 1)
	assert.True(t, unavailable[0].Removed)
	assert.Equal(t, 0, unavailable[0].Available)
}

func TestRepairRemovesOutOfStockLine(t *testing.T) {
	lines := []Line{
		{ID: "l1", ItemID: "a", Quantity: 3, Name: "Apple", StockQuantity: 0},
	}

	kept, unavailable := Repair(lines, func(string) bool { return true })
	assert.Empty(t, kept)
	assert.Len(t, unavailable, 1)
	assert.True(t, unavailable[0].Removed)
}

func TestRepairClampsQuantityToStock(t *testing.T) {
	lines := []Line{
		{ID: "l1", ItemID: "a", Quantity: 5, Name: "Apple", StockQuantity: 2},
	}

	kept, unavailable := Repair(lines, func(string) bool { return true })
	assert.Len(t, kept, 1)
	assert.Equal(t, 2, kept[0].Quantity)
	assert.Len(t, unavailable, 1)
	assert.False(t, unavailable[0].Removed)
	assert.Equal(t, 5, unavailable[0].Requested)
	assert.Equal(t, 2, unavailable[0].Available)
}

func TestRepairIsIdempotent(t *testing.T) {
	lines := []Line{
		{ID: "l1", ItemID: "a", Quantity: 5, Name: "Apple", StockQuantity: 2},
	}

	kept, _ := Repair(lines, func(string) bool { return true })
	again, unavailable := Repair(kept, func(string) bool { return true })
	assert.Equal(t, kept, again)
	assert.Empty(t, unavailable)
}
