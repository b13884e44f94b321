package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(pairs ...CartLine) []CartLine {
	return pairs
}

func quantitiesByProduct(merged []CartLine) map[uuid.UUID]int {
	result := make(map[uuid.UUID]int, len(merged))
	for _, line := range merged {
		result[line.ProductID] = line.Quantity
	}
	return result
}

func TestMerge_DisjointProductsCarryOverUnchanged(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	guest := lines(CartLine{ProductID: p1, Quantity: 2})
	account := lines(CartLine{ProductID: p2, Quantity: 1})

	merged := Merge(guest, account)

	require.Len(t, merged, 2)
	assert.Equal(t, map[uuid.UUID]int{p1: 2, p2: 1}, quantitiesByProduct(merged))
}

func TestMerge_SharedProductsSumQuantities(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	guest := lines(CartLine{ProductID: p1, Quantity: 1})
	account := lines(
		CartLine{ProductID: p1, Quantity: 3},
		CartLine{ProductID: p2, Quantity: 1},
	)

	merged := Merge(guest, account)

	assert.Equal(t, map[uuid.UUID]int{p1: 4, p2: 1}, quantitiesByProduct(merged))
}

func TestMerge_IsCommutative(t *testing.T) {
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	a := lines(
		CartLine{ProductID: p1, Quantity: 2},
		CartLine{ProductID: p3, Quantity: 7},
	)
	b := lines(
		CartLine{ProductID: p1, Quantity: 5},
		CartLine{ProductID: p2, Quantity: 1},
	)

	assert.Equal(t, quantitiesByProduct(Merge(a, b)), quantitiesByProduct(Merge(b, a)))
}

func TestMerge_ResultIsOrderedByProductID(t *testing.T) {
	var input []CartLine
	for i := 0; i < 10; i++ {
		input = append(input, CartLine{ProductID: uuid.New(), Quantity: 1})
	}

	merged := Merge(input, nil)

	require.Len(t, merged, 10)
	for i := 1; i < len(merged); i++ {
		assert.Less(t, merged[i-1].ProductID.String(), merged[i].ProductID.String())
	}
}

func TestMerge_EmptySides(t *testing.T) {
	p1 := uuid.New()
	only := lines(CartLine{ProductID: p1, Quantity: 2})

	assert.Equal(t, map[uuid.UUID]int{p1: 2}, quantitiesByProduct(Merge(only, nil)))
	assert.Equal(t, map[uuid.UUID]int{p1: 2}, quantitiesByProduct(Merge(nil, only)))
	assert.Empty(t, Merge(nil, nil))
}

func TestMerge_IgnoresNonPositiveQuantities(t *testing.T) {
	p1 := uuid.New()
	dirty := lines(
		CartLine{ProductID: p1, Quantity: 2},
		CartLine{ProductID: uuid.New(), Quantity: 0},
	)

	merged := Merge(dirty, nil)
	assert.Equal(t, map[uuid.UUID]int{p1: 2}, quantitiesByProduct(merged))
}

func TestMerge_RecomputesFromSources(t *testing.T) {
	// Re-running the merge from the same source states must not
	// double-count, which is what makes a failed persist retryable.
	p1 := uuid.New()
	guest := lines(CartLine{ProductID: p1, Quantity: 1})
	account := lines(CartLine{ProductID: p1, Quantity: 3})

	first := Merge(guest, account)
	second := Merge(guest, account)

	assert.Equal(t, quantitiesByProduct(first), quantitiesByProduct(second))
	assert.Equal(t, 4, quantitiesByProduct(second)[p1])
}
