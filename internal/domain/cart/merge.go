package cart

import (
	"sort"

	"github.com/google/uuid"
)

// Merge reconciles two line sets into one, as happens when a guest logs in
// and already has a persisted account cart.
//
// For a product present in only one input the line carries over unchanged;
// for a product present in both, the quantities are summed ("guest kept
// shopping" semantics, not "guest replaces account"). The result is
// recomputed from the two inputs on every call, ordered by product ID, and
// independent of argument order, so a failed persist can be retried from
// the same source states without double-counting.
func Merge(a, b []CartLine) []CartLine {
	quantities := make(map[uuid.UUID]int, len(a)+len(b))
	for _, line := range a {
		if line.Quantity > 0 {
			quantities[line.ProductID] += line.Quantity
		}
	}
	for _, line := range b {
		if line.Quantity > 0 {
			quantities[line.ProductID] += line.Quantity
		}
	}

	merged := make([]CartLine, 0, len(quantities))
	for productID, quantity := range quantities {
		merged = append(merged, CartLine{
			ID:        uuid.New(),
			ProductID: productID,
			Quantity:  quantity,
		})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID.String() < merged[j].ProductID.String()
	})
	return merged
}
