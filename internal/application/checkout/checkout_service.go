package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CartReader is the slice of the cart service checkout needs: snapshot the
// lines and clear the cart once the order is recorded.
type CartReader interface {
	Lines(ctx context.Context, owner cart.Owner) ([]cart.CartLine, error)
	Clear(ctx context.Context, owner cart.Owner) error
}

// CheckoutService coordinates the checkout flow: snapshot, validate, price,
// open a payment session, and record the order once the payment provider
// confirms. The provider is authoritative; no order exists before it says
// the money moved.
type CheckoutService struct {
	carts       CartReader
	productRepo catalog.ProductRepository
	orderRepo   order.OrderRepository
	snapshots   checkout.SnapshotRepository
	gateway     payment.Gateway
	scope       TransactionScope
	metrics     *telemetry.CheckoutMetrics
	logger      *zap.Logger
}

// NewCheckoutService creates a new CheckoutService. metrics may be nil.
func NewCheckoutService(
	carts CartReader,
	productRepo catalog.ProductRepository,
	orderRepo order.OrderRepository,
	snapshots checkout.SnapshotRepository,
	gateway payment.Gateway,
	scope TransactionScope,
	metrics *telemetry.CheckoutMetrics,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:       carts,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		snapshots:   snapshots,
		gateway:     gateway,
		scope:       scope,
		metrics:     metrics,
		logger:      logger,
	}
}

// pricedLine is a cart line joined with its authoritative catalog product
type pricedLine struct {
	product  *catalog.Product
	quantity int
}

// CreateSession snapshots and validates the user's cart, prices it from the
// catalog, opens a hosted payment session, and freezes the priced lines
// against the session. The order is later recorded from that frozen
// snapshot, so cart edits made while the payment page is open cannot change
// what gets recorded.
func (s *CheckoutService) CreateSession(ctx context.Context, userID uuid.UUID) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "create_session",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID.String()))
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordCheckoutAttempt(ctx)
	}

	priced, total, err := s.snapshotAndPrice(ctx, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	items := make([]payment.CheckoutItem, 0, len(priced))
	for _, line := range priced {
		items = append(items, payment.CheckoutItem{
			Name:       line.product.Name,
			Quantity:   line.quantity,
			UnitAmount: line.product.GetPriceMoney().MinorUnits(),
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CreateSessionInput{
		UserID: userID,
		Items:  items,
	})
	if err != nil {
		s.logger.Error("Payment session creation failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, shared.ErrPaymentFailed
	}

	if err := s.freezeSnapshot(ctx, session.SessionID, userID, priced, total); err != nil {
		// No money has moved yet; failing the whole request is safe and
		// keeps the session unconfirmable.
		s.logger.Error("Failed to freeze checkout snapshot",
			zap.String("user_id", userID.String()),
			zap.String("session_id", session.SessionID),
			zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Checkout session created",
		zap.String("user_id", userID.String()),
		zap.String("session_id", session.SessionID),
		zap.String("total", total.String()))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentSession, session.SessionID,
		telemetry.SpanAttrLineCount, len(items))

	return &SessionResponse{SessionID: session.SessionID, URL: session.URL}, nil
}

// Confirm asks the provider for the state of a session and, if it is paid,
// records the order. Confirming an already-recorded session returns the
// existing receipt.
func (s *CheckoutService) Confirm(ctx context.Context, userID uuid.UUID, sessionID string) (*OrderReceipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "confirm",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentSession, sessionID))
	defer span.End()

	if existing, err := s.orderRepo.FindByPaymentSession(ctx, sessionID); err == nil {
		if existing.UserID != userID {
			return nil, shared.ErrForbidden
		}
		return toReceipt(existing), nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	status, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.ErrPaymentFailed
	}
	if status.UserID != uuid.Nil && status.UserID != userID {
		return nil, shared.ErrForbidden
	}
	if !status.Paid {
		if s.metrics != nil {
			s.metrics.RecordPaymentDeclined(ctx, "unpaid")
		}
		s.logger.Warn("Checkout confirmation for unpaid session",
			zap.String("user_id", userID.String()),
			zap.String("session_id", sessionID))
		return nil, shared.ErrPaymentFailed
	}

	return s.recordOrder(ctx, userID, sessionID)
}

// HandleWebhook processes a verified provider callback. Completed sessions
// record the order; expired sessions count as declines. Redeliveries for
// already-recorded sessions are acknowledged without effect.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "webhook",
		telemetry.WithAttribute(telemetry.SpanAttrPaymentSession, event.SessionID))
	defer span.End()

	if !event.Paid {
		if event.EventType == "checkout.session.expired" {
			if s.metrics != nil {
				s.metrics.RecordPaymentDeclined(ctx, "session_expired")
			}
			s.logger.Info("Checkout session expired", zap.String("session_id", event.SessionID))
			if err := s.snapshots.DeleteBySession(ctx, event.SessionID); err != nil {
				s.logger.Warn("Failed to discard snapshot for expired session",
					zap.String("session_id", event.SessionID),
					zap.Error(err))
			}
		}
		return nil
	}

	if event.UserID == uuid.Nil {
		s.logger.Warn("Paid session without a user reference, ignoring",
			zap.String("session_id", event.SessionID),
			zap.String("event_id", event.EventID))
		return nil
	}

	if _, err := s.orderRepo.FindByPaymentSession(ctx, event.SessionID); err == nil {
		s.logger.Debug("Webhook redelivery for recorded session",
			zap.String("session_id", event.SessionID))
		return nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	_, err = s.recordOrder(ctx, event.UserID, event.SessionID)
	return err
}

// snapshotAndPrice reads the cart and joins it with the catalog, enforcing
// the checkout preconditions: non-empty cart, purchasable products, enough
// stock for every line.
func (s *CheckoutService) snapshotAndPrice(ctx context.Context, userID uuid.UUID) ([]pricedLine, valueobject.Money, error) {
	owner, err := cart.UserOwner(userID)
	if err != nil {
		return nil, valueobject.ZeroUSD(), err
	}

	lines, err := s.carts.Lines(ctx, owner)
	if err != nil {
		return nil, valueobject.ZeroUSD(), err
	}
	if len(lines) == 0 {
		return nil, valueobject.ZeroUSD(), shared.ErrEmptyCart
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, valueobject.ZeroUSD(), err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for idx := range products {
		byID[products[idx].ID] = &products[idx]
	}

	priced := make([]pricedLine, 0, len(lines))
	var outOfStock []string
	total := valueobject.ZeroUSD()
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, valueobject.ZeroUSD(), shared.NewDomainError("PRODUCT_NOT_FOUND",
				fmt.Sprintf("Product %s is no longer in the catalog", line.ProductID))
		}
		if !product.IsActive() {
			return nil, valueobject.ZeroUSD(), shared.NewDomainError("PRODUCT_INACTIVE",
				fmt.Sprintf("Product %q is not available for sale", product.Name))
		}
		if !product.HasStock(line.Quantity) {
			outOfStock = append(outOfStock, product.Name)
			continue
		}

		priced = append(priced, pricedLine{product: product, quantity: line.Quantity})
		total, err = total.Add(product.GetPriceMoney().Mul(int64(line.Quantity)))
		if err != nil {
			return nil, valueobject.ZeroUSD(), err
		}
	}
	if len(outOfStock) > 0 {
		return nil, valueobject.ZeroUSD(), shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock for: %s", strings.Join(outOfStock, ", ")))
	}

	return priced, total, nil
}

// freezeSnapshot persists the priced lines against the payment session so
// the order can be recorded from them after the payment window.
func (s *CheckoutService) freezeSnapshot(ctx context.Context, sessionID string, userID uuid.UUID, priced []pricedLine, total valueobject.Money) error {
	snapshotID := uuid.New()
	lines := make([]checkout.SnapshotLine, 0, len(priced))
	for _, line := range priced {
		sl, err := checkout.NewSnapshotLine(snapshotID, line.product.ID, line.product.Name,
			line.quantity, line.product.GetPriceMoney())
		if err != nil {
			return err
		}
		lines = append(lines, *sl)
	}

	snap, err := checkout.NewSnapshot(sessionID, userID, lines, total)
	if err != nil {
		return err
	}
	return s.snapshots.Save(ctx, snap)
}

// recordOrder persists the order for a payment the provider has confirmed.
// The order is built from the snapshot frozen at session creation, not from
// the live cart: the cart may have changed while the payment page was open,
// but the provider charged for the snapshot. Every failure past this point
// is a post-payment persistence failure: the shopper has paid and no order
// exists. It is logged, counted, and surfaced; it is never retried
// automatically.
func (s *CheckoutService) recordOrder(ctx context.Context, userID uuid.UUID, sessionID string) (*OrderReceipt, error) {
	snap, err := s.snapshots.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, s.postPaymentFailure(ctx, userID, sessionID, err)
	}

	var recorded *order.Order
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		orderNumber, err := repos.Orders().GenerateOrderNumber(ctx)
		if err != nil {
			return err
		}

		items := make([]order.OrderItem, 0, len(snap.Lines))
		orderID := uuid.New()
		for _, line := range snap.Lines {
			if err := repos.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
			item, err := order.NewOrderItem(orderID, line.ProductID, line.ProductName,
				line.Quantity, line.UnitPriceMoney())
			if err != nil {
				return err
			}
			items = append(items, *item)
		}

		o, err := order.NewOrder(orderNumber, userID, sessionID, items, snap.GetTotalMoney())
		if err != nil {
			return err
		}
		if err := repos.Orders().Create(ctx, o); err != nil {
			return err
		}
		recorded = o
		return nil
	})
	if err != nil {
		return nil, s.postPaymentFailure(ctx, userID, sessionID, err)
	}

	owner, _ := cart.UserOwner(userID)
	if err := s.carts.Clear(ctx, owner); err != nil {
		// The order exists; a lingering cart is an annoyance, not a loss.
		s.logger.Warn("Failed to clear cart after order",
			zap.String("user_id", userID.String()),
			zap.String("order_number", recorded.OrderNumber),
			zap.Error(err))
	}
	if err := s.snapshots.DeleteBySession(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to discard consumed snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	if s.metrics != nil {
		amount, _ := recorded.Total.Float64()
		s.metrics.RecordOrderRecorded(ctx, amount)
	}
	s.logger.Info("Order recorded",
		zap.String("user_id", userID.String()),
		zap.String("order_number", recorded.OrderNumber),
		zap.String("session_id", sessionID),
		zap.String("total", recorded.Total.String()))

	return toReceipt(recorded), nil
}

func (s *CheckoutService) postPaymentFailure(ctx context.Context, userID uuid.UUID, sessionID string, cause error) error {
	if s.metrics != nil {
		s.metrics.RecordPostPaymentPersistFailure(ctx)
	}
	s.logger.Error("Payment confirmed but order could not be recorded; manual reconciliation required",
		zap.String("user_id", userID.String()),
		zap.String("session_id", sessionID),
		zap.Error(cause))
	return shared.NewDomainError("POST_PAYMENT_PERSIST",
		"Payment succeeded but the order could not be recorded. Support has been notified")
}
