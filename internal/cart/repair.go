package cart

// Repair reconciles cart lines against the live catalog. Lines whose item is
// gone (present=false) or whose stock dropped to zero are removed; lines
// requesting more than the available stock are clamped down. The second
// return value reports every adjustment so it can be surfaced to the client.
//
// Lines already within stock pass through untouched, so Repair is idempotent.
func Repair(lines []Line, present func(itemID string) bool) ([]Line, []UnavailableLine) {
	var kept []Line
	var unavailable []UnavailableLine

	for _, line := range lines {
		if !present(line.ItemID) {
			unavailable = append(unavailable, UnavailableLine{
				ItemID:    line.ItemID,
				Name:      line.Name,
				Requested: line.Quantity,
				Available: 0,
				Removed:   true,
			})
			continue
		}
		if line.StockQuantity <= 0 {
			unavailable = append(unavailable, UnavailableLine{
				ItemID:    line.ItemID,
				Name:      line.Name,
				Requested: line.Quantity,
				Available: 0,
				Removed:   true,
			})
			continue
		}
		if line.Quantity > line.StockQuantity {
			unavailable = append(unavailable, UnavailableLine{
				ItemID:    line.ItemID,
				Name:      line.Name,
				Requested: line.Quantity,
				Available: line.StockQuantity,
			})
			line.Quantity = line.StockQuantity
		}
		kept = append(kept, line)
	}

	return kept, unavailable
}
