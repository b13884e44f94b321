package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MergeService reconciles a guest cart into an account cart when the guest
// logs in.
type MergeService struct {
	guestStore cart.GuestCartStore
	cartRepo   cart.CartRepository
	metrics    *telemetry.CheckoutMetrics
	logger     *zap.Logger
}

// NewMergeService creates a new MergeService. metrics may be nil.
func NewMergeService(
	guestStore cart.GuestCartStore,
	cartRepo cart.CartRepository,
	metrics *telemetry.CheckoutMetrics,
	logger *zap.Logger,
) *MergeService {
	return &MergeService{
		guestStore: guestStore,
		cartRepo:   cartRepo,
		metrics:    metrics,
		logger:     logger,
	}
}

// MergeOnLogin merges the guest session's cart into the user's persisted
// cart: overlapping products sum their quantities, everything else carries
// over. The guest cart is cleared only after the merged result is stored;
// a persist failure leaves both sources untouched so the merge can be
// retried without double-counting.
func (s *MergeService) MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) error {
	if sessionID == "" {
		return nil
	}

	guestLines, err := s.guestStore.Get(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to read guest cart for merge",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return shared.ErrCartSync
	}
	if len(guestLines) == 0 {
		return nil
	}

	var userLines []cart.CartLine
	userCart, err := s.cartRepo.FindByUser(ctx, userID)
	switch {
	case err == nil:
		userLines = userCart.Lines
	case errors.Is(err, shared.ErrNotFound):
		userLines = nil
	default:
		s.logger.Error("Failed to read account cart for merge",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return shared.ErrCartSync
	}

	merged := cart.Merge(guestLines, userLines)

	if err := s.cartRepo.ReplaceLines(ctx, userID, merged); err != nil {
		s.logger.Error("Failed to persist merged cart, guest cart left intact",
			zap.String("user_id", userID.String()),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return shared.ErrCartSync
	}

	// The merge is committed; a failed guest clear must not trigger a
	// client retry, which would re-add the guest lines.
	if err := s.guestStore.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to clear guest cart after merge, entry will expire",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordCartMerge(ctx)
	}

	s.logger.Info("Merged guest cart into account cart",
		zap.String("user_id", userID.String()),
		zap.Int("guest_lines", len(guestLines)),
		zap.Int("merged_lines", len(merged)))
	return nil
}
