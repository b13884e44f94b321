package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

func line(productID uuid.UUID, quantity int) cart.CartLine {
	return cart.CartLine{ID: uuid.New(), ProductID: productID, Quantity: quantity}
}

func TestMergeService_MergeOnLogin(t *testing.T) {
	mugID := uuid.New()
	potID := uuid.New()
	kettleID := uuid.New()

	t.Run("sums overlapping lines and clears the guest cart", func(t *testing.T) {
		guestStore := cache.NewInMemoryGuestCartStore(time.Hour)
		cartRepo := new(MockCartRepository)
		service := NewMergeService(guestStore, cartRepo, nil, zap.NewNop())

		userID := uuid.New()
		sessionID := "sess-merge"
		require.NoError(t, guestStore.Replace(context.Background(), sessionID,
			[]cart.CartLine{line(mugID, 2), line(kettleID, 1)}))

		owner, err := cart.UserOwner(userID)
		require.NoError(t, err)
		userCart := cart.NewCart(owner)
		userCart.SetLines([]cart.CartLine{line(mugID, 3), line(potID, 1)})

		cartRepo.On("FindByUser", mock.Anything, userID).Return(userCart, nil)
		cartRepo.On("ReplaceLines", mock.Anything, userID, mock.MatchedBy(func(lines []cart.CartLine) bool {
			byProduct := make(map[uuid.UUID]int)
			for _, l := range lines {
				byProduct[l.ProductID] = l.Quantity
			}
			return len(lines) == 3 &&
				byProduct[mugID] == 5 &&
				byProduct[potID] == 1 &&
				byProduct[kettleID] == 1
		})).Return(nil)

		require.NoError(t, service.MergeOnLogin(context.Background(), sessionID, userID))

		remaining, err := guestStore.Get(context.Background(), sessionID)
		require.NoError(t, err)
		assert.Empty(t, remaining)
		cartRepo.AssertExpectations(t)
	})

	t.Run("no guest session is a no-op", func(t *testing.T) {
		guestStore := cache.NewInMemoryGuestCartStore(time.Hour)
		cartRepo := new(MockCartRepository)
		service := NewMergeService(guestStore, cartRepo, nil, zap.NewNop())

		require.NoError(t, service.MergeOnLogin(context.Background(), "", uuid.New()))
		cartRepo.AssertNotCalled(t, "ReplaceLines")
	})

	t.Run("empty guest cart is a no-op", func(t *testing.T) {
		guestStore := cache.NewInMemoryGuestCartStore(time.Hour)
		cartRepo := new(MockCartRepository)
		service := NewMergeService(guestStore, cartRepo, nil, zap.NewNop())

		require.NoError(t, service.MergeOnLogin(context.Background(), "sess-empty", uuid.New()))
		cartRepo.AssertNotCalled(t, "FindByUser")
	})

	t.Run("user without a cart receives the guest lines", func(t *testing.T) {
		guestStore := cache.NewInMemoryGuestCartStore(time.Hour)
		cartRepo := new(MockCartRepository)
		service := NewMergeService(guestStore, cartRepo, nil, zap.NewNop())

		userID := uuid.New()
		sessionID := "sess-fresh"
		require.NoError(t, guestStore.Replace(context.Background(), sessionID,
			[]cart.CartLine{line(mugID, 2)}))

		cartRepo.On("FindByUser", mock.Anything, userID).Return(nil, shared.ErrNotFound)
		cartRepo.On("ReplaceLines", mock.Anything, userID, mock.MatchedBy(func(lines []cart.CartLine) bool {
			return len(lines) == 1 && lines[0].ProductID == mugID && lines[0].Quantity == 2
		})).Return(nil)

		require.NoError(t, service.MergeOnLogin(context.Background(), sessionID, userID))
		cartRepo.AssertExpectations(t)
	})

	t.Run("persist failure leaves guest cart intact", func(t *testing.T) {
		guestStore := cache.NewInMemoryGuestCartStore(time.Hour)
		cartRepo := new(MockCartRepository)
		service := NewMergeService(guestStore, cartRepo, nil, zap.NewNop())

		userID := uuid.New()
		sessionID := "sess-fail"
		require.NoError(t, guestStore.Replace(context.Background(), sessionID,
			[]cart.CartLine{line(mugID, 2)}))

		cartRepo.On("FindByUser", mock.Anything, userID).Return(nil, shared.ErrNotFound)
		cartRepo.On("ReplaceLines", mock.Anything, userID, mock.Anything).Return(assert.AnError)

		err := service.MergeOnLogin(context.Background(), sessionID, userID)
		assert.ErrorIs(t, err, shared.ErrCartSync)

		remaining, getErr := guestStore.Get(context.Background(), sessionID)
		require.NoError(t, getErr)
		assert.Len(t, remaining, 1)
	})

	t.Run("retry after failure does not double-count", func(t *testing.T) {
		guestStore := cache.NewInMemoryGuestCartStore(time.Hour)
		cartRepo := new(MockCartRepository)
		service := NewMergeService(guestStore, cartRepo, nil, zap.NewNop())

		userID := uuid.New()
		sessionID := "sess-retry"
		require.NoError(t, guestStore.Replace(context.Background(), sessionID,
			[]cart.CartLine{line(mugID, 2)}))

		owner, err := cart.UserOwner(userID)
		require.NoError(t, err)
		userCart := cart.NewCart(owner)
		userCart.SetLines([]cart.CartLine{line(mugID, 3)})
		cartRepo.On("FindByUser", mock.Anything, userID).Return(userCart, nil)

		expectMergedFive := mock.MatchedBy(func(lines []cart.CartLine) bool {
			return len(lines) == 1 && lines[0].Quantity == 5
		})
		cartRepo.On("ReplaceLines", mock.Anything, userID, expectMergedFive).Return(assert.AnError).Once()
		cartRepo.On("ReplaceLines", mock.Anything, userID, expectMergedFive).Return(nil).Once()

		require.Error(t, service.MergeOnLogin(context.Background(), sessionID, userID))
		require.NoError(t, service.MergeOnLogin(context.Background(), sessionID, userID))
		cartRepo.AssertExpectations(t)
	})
}
