package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestOwner(t *testing.T) {
	t.Run("requires session ID", func(t *testing.T) {
		_, err := GuestOwner("")
		assert.Error(t, err)
	})

	t.Run("creates guest owner", func(t *testing.T) {
		owner, err := GuestOwner("sess-123")
		require.NoError(t, err)
		assert.True(t, owner.IsGuest())
		assert.False(t, owner.IsUser())
		assert.Equal(t, "guest:sess-123", owner.String())
	})
}

func TestUserOwner(t *testing.T) {
	t.Run("requires user ID", func(t *testing.T) {
		_, err := UserOwner(uuid.Nil)
		assert.Error(t, err)
	})

	t.Run("creates user owner", func(t *testing.T) {
		userID := uuid.New()
		owner, err := UserOwner(userID)
		require.NoError(t, err)
		assert.True(t, owner.IsUser())
		assert.Equal(t, userID, owner.UserID)
	})
}

func newGuestCart(t *testing.T) *Cart {
	t.Helper()
	owner, err := GuestOwner("sess-1")
	require.NoError(t, err)
	return NewCart(owner)
}

func TestNewCart_UserOwnerSetsUserID(t *testing.T) {
	userID := uuid.New()
	owner, _ := UserOwner(userID)
	c := NewCart(owner)

	require.NotNil(t, c.UserID)
	assert.Equal(t, userID, *c.UserID)
	assert.True(t, c.IsEmpty())
}

func TestCart_UpsertLine(t *testing.T) {
	t.Run("inserts new line", func(t *testing.T) {
		c := newGuestCart(t)
		productID := uuid.New()

		require.NoError(t, c.UpsertLine(productID, 2))

		line, ok := c.Line(productID)
		require.True(t, ok)
		assert.Equal(t, 2, line.Quantity)
	})

	t.Run("overwrites existing quantity", func(t *testing.T) {
		c := newGuestCart(t)
		productID := uuid.New()

		require.NoError(t, c.UpsertLine(productID, 2))
		require.NoError(t, c.UpsertLine(productID, 5))

		line, _ := c.Line(productID)
		assert.Equal(t, 5, line.Quantity, "upsert overwrites, it does not add")
		assert.Equal(t, 1, c.LineCount())
	})

	t.Run("rejects nil product ID", func(t *testing.T) {
		c := newGuestCart(t)
		assert.Error(t, c.UpsertLine(uuid.Nil, 1))
	})

	t.Run("zero quantity equals remove", func(t *testing.T) {
		productID := uuid.New()

		upserted := newGuestCart(t)
		require.NoError(t, upserted.UpsertLine(productID, 3))
		require.NoError(t, upserted.UpsertLine(productID, 0))

		removed := newGuestCart(t)
		require.NoError(t, removed.UpsertLine(productID, 3))
		removed.RemoveLine(productID)

		assert.Equal(t, removed.Snapshot(), upserted.Snapshot())
		assert.True(t, upserted.IsEmpty())
	})

	t.Run("negative quantity equals remove", func(t *testing.T) {
		c := newGuestCart(t)
		productID := uuid.New()
		require.NoError(t, c.UpsertLine(productID, 3))
		require.NoError(t, c.UpsertLine(productID, -1))
		assert.True(t, c.IsEmpty())
	})
}

func TestCart_AddItem(t *testing.T) {
	c := newGuestCart(t)
	productID := uuid.New()

	require.NoError(t, c.AddItem(productID))
	line, _ := c.Line(productID)
	assert.Equal(t, 1, line.Quantity)

	require.NoError(t, c.AddItem(productID))
	line, _ = c.Line(productID)
	assert.Equal(t, 2, line.Quantity)

	other := uuid.New()
	require.NoError(t, c.AddItem(other))
	assert.Equal(t, 2, c.LineCount())
	assert.Equal(t, 3, c.TotalQuantity())
}

func TestCart_RemoveLine_AbsentProductIsNoop(t *testing.T) {
	c := newGuestCart(t)
	require.NoError(t, c.UpsertLine(uuid.New(), 1))

	c.RemoveLine(uuid.New())
	assert.Equal(t, 1, c.LineCount())
}

func TestCart_Clear(t *testing.T) {
	c := newGuestCart(t)
	require.NoError(t, c.UpsertLine(uuid.New(), 1))
	require.NoError(t, c.UpsertLine(uuid.New(), 2))

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.TotalQuantity())
}

func TestCart_SnapshotIsACopy(t *testing.T) {
	c := newGuestCart(t)
	productID := uuid.New()
	require.NoError(t, c.UpsertLine(productID, 2))

	snapshot := c.Snapshot()
	require.Len(t, snapshot, 1)

	// Mutating the cart after the snapshot must not affect it.
	require.NoError(t, c.UpsertLine(productID, 9))
	assert.Equal(t, 2, snapshot[0].Quantity)
}

func TestCart_SetLines_DropsNonPositiveQuantities(t *testing.T) {
	c := newGuestCart(t)
	keep := uuid.New()
	c.SetLines([]CartLine{
		{ProductID: keep, Quantity: 2},
		{ProductID: uuid.New(), Quantity: 0},
	})

	require.Equal(t, 1, c.LineCount())
	line, ok := c.Line(keep)
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, c.ID, c.Lines[0].CartID)
}
