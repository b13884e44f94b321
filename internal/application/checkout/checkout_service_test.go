package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"go.uber.org/zap"
)

// MockCartReader is a mock implementation of CartReader
type MockCartReader struct {
	mock.Mock
}

func (m *MockCartReader) Lines(ctx context.Context, owner cart.Owner) ([]cart.CartLine, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.CartLine), args.Error(1)
}

func (m *MockCartReader) Clear(ctx context.Context, owner cart.Owner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of order.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPaymentSession(ctx context.Context, sessionID string) (*order.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, input payment.CreateSessionInput) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockGateway) RetrieveSession(ctx context.Context, sessionID string) (*payment.SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.SessionStatus), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

// stubScope runs the transactional function directly, without a database
type stubScope struct {
	orders       order.OrderRepository
	decremented  map[uuid.UUID]int
	decrementErr error
}

func newStubScope(orders order.OrderRepository) *stubScope {
	return &stubScope{orders: orders, decremented: make(map[uuid.UUID]int)}
}

func (s *stubScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *stubScope) Orders() order.OrderRepository {
	return s.orders
}

func (s *stubScope) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	if s.decrementErr != nil {
		return s.decrementErr
	}
	s.decremented[productID] += quantity
	return nil
}

// stubSnapshotStore is an in-memory checkout.SnapshotRepository
type stubSnapshotStore struct {
	bySession map[string]*checkout.Snapshot
	saveErr   error
}

func newStubSnapshotStore() *stubSnapshotStore {
	return &stubSnapshotStore{bySession: make(map[string]*checkout.Snapshot)}
}

func (s *stubSnapshotStore) Save(ctx context.Context, snap *checkout.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.bySession[snap.PaymentSessionID] = snap
	return nil
}

func (s *stubSnapshotStore) FindBySession(ctx context.Context, sessionID string) (*checkout.Snapshot, error) {
	snap, ok := s.bySession[sessionID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return snap, nil
}

func (s *stubSnapshotStore) DeleteBySession(ctx context.Context, sessionID string) error {
	delete(s.bySession, sessionID)
	return nil
}

type fixture struct {
	carts       *MockCartReader
	productRepo *MockProductRepository
	orderRepo   *MockOrderRepository
	snapshots   *stubSnapshotStore
	gateway     *MockGateway
	scope       *stubScope
	service     *CheckoutService
}

func newFixture() *fixture {
	f := &fixture{
		carts:       new(MockCartReader),
		productRepo: new(MockProductRepository),
		orderRepo:   new(MockOrderRepository),
		snapshots:   newStubSnapshotStore(),
		gateway:     new(MockGateway),
	}
	f.scope = newStubScope(f.orderRepo)
	f.service = NewCheckoutService(f.carts, f.productRepo, f.orderRepo, f.snapshots, f.gateway, f.scope, nil, zap.NewNop())
	return f
}

func checkoutProduct(t *testing.T, name, price string, stock int) *catalog.Product {
	t.Helper()
	money, err := valueobject.NewMoneyUSDFromString(price)
	require.NoError(t, err)
	product, err := catalog.NewProduct(name, "", money, stock)
	require.NoError(t, err)
	return product
}

func cartLine(productID uuid.UUID, quantity int) cart.CartLine {
	return cart.CartLine{ID: uuid.New(), ProductID: productID, Quantity: quantity}
}

// freezeSnapshot seeds the snapshot store as CreateSession would have,
// pricing quantity units of the product against the session.
func freezeSnapshot(t *testing.T, f *fixture, sessionID string, userID uuid.UUID, product *catalog.Product, quantity int) {
	t.Helper()
	line, err := checkout.NewSnapshotLine(uuid.Nil, product.ID, product.Name, quantity, product.GetPriceMoney())
	require.NoError(t, err)
	snap, err := checkout.NewSnapshot(sessionID, userID, []checkout.SnapshotLine{*line},
		product.GetPriceMoney().Mul(int64(quantity)))
	require.NoError(t, err)
	require.NoError(t, f.snapshots.Save(context.Background(), snap))
}

func TestCheckoutService_CreateSession(t *testing.T) {
	userID := uuid.New()

	t.Run("prices the cart and opens a session", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)
		pot := checkoutProduct(t, "Tea Pot", "24.00", 5)

		f.carts.On("Lines", mock.Anything, mock.Anything).
			Return([]cart.CartLine{cartLine(mug.ID, 2), cartLine(pot.ID, 1)}, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).
			Return([]catalog.Product{*mug, *pot}, nil)

		var captured payment.CreateSessionInput
		f.gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(in payment.CreateSessionInput) bool {
			captured = in
			return true
		})).Return(&payment.CheckoutSession{SessionID: "cs_123", URL: "https://pay.example/cs_123"}, nil)

		resp, err := f.service.CreateSession(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, "cs_123", resp.SessionID)
		assert.Equal(t, userID, captured.UserID)
		require.Len(t, captured.Items, 2)
		byName := map[string]payment.CheckoutItem{}
		for _, item := range captured.Items {
			byName[item.Name] = item
		}
		assert.Equal(t, int64(1250), byName["Coffee Mug"].UnitAmount)
		assert.Equal(t, 2, byName["Coffee Mug"].Quantity)
		assert.Equal(t, int64(2400), byName["Tea Pot"].UnitAmount)
	})

	t.Run("freezes the priced lines against the session", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)

		f.carts.On("Lines", mock.Anything, mock.Anything).
			Return([]cart.CartLine{cartLine(mug.ID, 2)}, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).
			Return([]catalog.Product{*mug}, nil)
		f.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(&payment.CheckoutSession{SessionID: "cs_frozen", URL: "https://pay.example/cs_frozen"}, nil)

		_, err := f.service.CreateSession(context.Background(), userID)

		require.NoError(t, err)
		snap, err := f.snapshots.FindBySession(context.Background(), "cs_frozen")
		require.NoError(t, err)
		assert.Equal(t, userID, snap.UserID)
		require.Len(t, snap.Lines, 1)
		assert.Equal(t, mug.ID, snap.Lines[0].ProductID)
		assert.Equal(t, 2, snap.Lines[0].Quantity)
		assert.True(t, snap.Total.Equal(decimal.NewFromInt(25)))
	})

	t.Run("snapshot persist failure fails the request", func(t *testing.T) {
		f := newFixture()
		f.snapshots.saveErr = assert.AnError
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)

		f.carts.On("Lines", mock.Anything, mock.Anything).
			Return([]cart.CartLine{cartLine(mug.ID, 1)}, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).
			Return([]catalog.Product{*mug}, nil)
		f.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(&payment.CheckoutSession{SessionID: "cs_lost", URL: "https://pay.example/cs_lost"}, nil)

		_, err := f.service.CreateSession(context.Background(), userID)
		assert.Error(t, err)
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture()
		f.carts.On("Lines", mock.Anything, mock.Anything).Return([]cart.CartLine{}, nil)

		_, err := f.service.CreateSession(context.Background(), userID)

		assert.ErrorIs(t, err, shared.ErrEmptyCart)
		f.gateway.AssertNotCalled(t, "CreateCheckoutSession")
	})

	t.Run("insufficient stock names every offending product", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 1)
		pot := checkoutProduct(t, "Tea Pot", "24.00", 0)

		f.carts.On("Lines", mock.Anything, mock.Anything).
			Return([]cart.CartLine{cartLine(mug.ID, 2), cartLine(pot.ID, 1)}, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).
			Return([]catalog.Product{*mug, *pot}, nil)

		_, err := f.service.CreateSession(context.Background(), userID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
		assert.Contains(t, domainErr.Message, "Coffee Mug")
		assert.Contains(t, domainErr.Message, "Tea Pot")
	})

	t.Run("inactive product blocks checkout", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)
		require.NoError(t, mug.Deactivate())

		f.carts.On("Lines", mock.Anything, mock.Anything).
			Return([]cart.CartLine{cartLine(mug.ID, 1)}, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).
			Return([]catalog.Product{*mug}, nil)

		_, err := f.service.CreateSession(context.Background(), userID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PRODUCT_INACTIVE", domainErr.Code)
	})

	t.Run("gateway failure surfaces as payment failure", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)

		f.carts.On("Lines", mock.Anything, mock.Anything).
			Return([]cart.CartLine{cartLine(mug.ID, 1)}, nil)
		f.productRepo.On("FindByIDs", mock.Anything, mock.Anything).
			Return([]catalog.Product{*mug}, nil)
		f.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(nil, assert.AnError)

		_, err := f.service.CreateSession(context.Background(), userID)
		assert.ErrorIs(t, err, shared.ErrPaymentFailed)
	})
}

func TestCheckoutService_Confirm(t *testing.T) {
	userID := uuid.New()
	sessionID := "cs_paid"

	t.Run("records order after confirmed payment", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)
		freezeSnapshot(t, f, sessionID, userID, mug, 2)

		f.orderRepo.On("FindByPaymentSession", mock.Anything, sessionID).Return(nil, shared.ErrNotFound)
		f.gateway.On("RetrieveSession", mock.Anything, sessionID).
			Return(&payment.SessionStatus{SessionID: sessionID, UserID: userID, Paid: true}, nil)
		f.orderRepo.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-00001", nil)
		f.orderRepo.On("Create", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
			return o.UserID == userID && o.PaymentSessionID == sessionID && len(o.Items) == 1
		})).Return(nil)
		f.carts.On("Clear", mock.Anything, mock.Anything).Return(nil)

		receipt, err := f.service.Confirm(context.Background(), userID, sessionID)

		require.NoError(t, err)
		assert.Equal(t, "ORD-2026-00001", receipt.OrderNumber)
		assert.True(t, receipt.Total.Equal(decimal.NewFromInt(25)))
		assert.Equal(t, 2, f.scope.decremented[mug.ID])
		f.carts.AssertCalled(t, "Clear", mock.Anything, mock.Anything)

		_, err = f.snapshots.FindBySession(context.Background(), sessionID)
		assert.ErrorIs(t, err, shared.ErrNotFound, "consumed snapshot is discarded")
	})

	t.Run("records what the session priced, not the live cart", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)
		freezeSnapshot(t, f, sessionID, userID, mug, 2)

		// The shopper bumped the line to 3 while the payment page was
		// open; the provider captured 25.00 for 2 units.
		f.carts.On("Lines", mock.Anything, mock.Anything).
			Return([]cart.CartLine{cartLine(mug.ID, 3)}, nil)

		f.orderRepo.On("FindByPaymentSession", mock.Anything, sessionID).Return(nil, shared.ErrNotFound)
		f.gateway.On("RetrieveSession", mock.Anything, sessionID).
			Return(&payment.SessionStatus{SessionID: sessionID, UserID: userID, Paid: true}, nil)
		f.orderRepo.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-00006", nil)

		var recorded *order.Order
		f.orderRepo.On("Create", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
			recorded = o
			return true
		})).Return(nil)
		f.carts.On("Clear", mock.Anything, mock.Anything).Return(nil)

		receipt, err := f.service.Confirm(context.Background(), userID, sessionID)

		require.NoError(t, err)
		assert.True(t, receipt.Total.Equal(decimal.NewFromInt(25)), "total matches the captured amount")
		require.Len(t, recorded.Items, 1)
		assert.Equal(t, 2, recorded.Items[0].Quantity)
		assert.Equal(t, 2, f.scope.decremented[mug.ID])
		f.carts.AssertNotCalled(t, "Lines")
	})

	t.Run("already recorded session returns existing receipt", func(t *testing.T) {
		f := newFixture()
		money, err := valueobject.NewMoneyUSDFromString("25.00")
		require.NoError(t, err)
		item, err := order.NewOrderItem(uuid.New(), uuid.New(), "Coffee Mug", 2, valueobject.NewMoneyUSD(money.Amount().Div(two())))
		require.NoError(t, err)
		existing, err := order.NewOrder("ORD-2026-00007", userID, sessionID, []order.OrderItem{*item}, money)
		require.NoError(t, err)

		f.orderRepo.On("FindByPaymentSession", mock.Anything, sessionID).Return(existing, nil)

		receipt, err := f.service.Confirm(context.Background(), userID, sessionID)

		require.NoError(t, err)
		assert.Equal(t, "ORD-2026-00007", receipt.OrderNumber)
		f.gateway.AssertNotCalled(t, "RetrieveSession")
	})

	t.Run("someone else's session is refused", func(t *testing.T) {
		f := newFixture()
		f.orderRepo.On("FindByPaymentSession", mock.Anything, sessionID).Return(nil, shared.ErrNotFound)
		f.gateway.On("RetrieveSession", mock.Anything, sessionID).
			Return(&payment.SessionStatus{SessionID: sessionID, UserID: uuid.New(), Paid: true}, nil)

		_, err := f.service.Confirm(context.Background(), userID, sessionID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("unpaid session is a payment failure with no mutation", func(t *testing.T) {
		f := newFixture()
		f.orderRepo.On("FindByPaymentSession", mock.Anything, sessionID).Return(nil, shared.ErrNotFound)
		f.gateway.On("RetrieveSession", mock.Anything, sessionID).
			Return(&payment.SessionStatus{SessionID: sessionID, UserID: userID, Paid: false}, nil)

		_, err := f.service.Confirm(context.Background(), userID, sessionID)

		assert.ErrorIs(t, err, shared.ErrPaymentFailed)
		f.orderRepo.AssertNotCalled(t, "Create")
		f.carts.AssertNotCalled(t, "Clear")
	})

	t.Run("missing snapshot after payment is a persist failure", func(t *testing.T) {
		f := newFixture()
		f.orderRepo.On("FindByPaymentSession", mock.Anything, sessionID).Return(nil, shared.ErrNotFound)
		f.gateway.On("RetrieveSession", mock.Anything, sessionID).
			Return(&payment.SessionStatus{SessionID: sessionID, UserID: userID, Paid: true}, nil)

		_, err := f.service.Confirm(context.Background(), userID, sessionID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "POST_PAYMENT_PERSIST", domainErr.Code)
		f.orderRepo.AssertNotCalled(t, "Create")
	})

	t.Run("order persist failure after payment", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)
		freezeSnapshot(t, f, sessionID, userID, mug, 2)

		f.orderRepo.On("FindByPaymentSession", mock.Anything, sessionID).Return(nil, shared.ErrNotFound)
		f.gateway.On("RetrieveSession", mock.Anything, sessionID).
			Return(&payment.SessionStatus{SessionID: sessionID, UserID: userID, Paid: true}, nil)
		f.orderRepo.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-00002", nil)
		f.orderRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

		_, err := f.service.Confirm(context.Background(), userID, sessionID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "POST_PAYMENT_PERSIST", domainErr.Code)
		f.carts.AssertNotCalled(t, "Clear")
	})

	t.Run("concurrent oversell rolls back and surfaces as persist failure", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)
		freezeSnapshot(t, f, sessionID, userID, mug, 2)
		f.scope.decrementErr = shared.ErrInsufficientStock

		f.orderRepo.On("FindByPaymentSession", mock.Anything, sessionID).Return(nil, shared.ErrNotFound)
		f.gateway.On("RetrieveSession", mock.Anything, sessionID).
			Return(&payment.SessionStatus{SessionID: sessionID, UserID: userID, Paid: true}, nil)
		f.orderRepo.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-00003", nil)

		_, err := f.service.Confirm(context.Background(), userID, sessionID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "POST_PAYMENT_PERSIST", domainErr.Code)
		f.orderRepo.AssertNotCalled(t, "Create")
	})
}

func TestCheckoutService_HandleWebhook(t *testing.T) {
	userID := uuid.New()
	payload := []byte(`{}`)

	t.Run("invalid signature", func(t *testing.T) {
		f := newFixture()
		f.gateway.On("VerifyWebhook", payload, "bad-sig").Return(nil, assert.AnError)

		err := f.service.HandleWebhook(context.Background(), payload, "bad-sig")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_SIGNATURE", domainErr.Code)
	})

	t.Run("expired session acknowledged and snapshot discarded", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)
		freezeSnapshot(t, f, "cs_expired", userID, mug, 1)

		f.gateway.On("VerifyWebhook", payload, "sig").Return(&payment.WebhookEvent{
			EventID:   "evt_1",
			EventType: "checkout.session.expired",
			SessionID: "cs_expired",
			Paid:      false,
		}, nil)

		assert.NoError(t, f.service.HandleWebhook(context.Background(), payload, "sig"))
		f.orderRepo.AssertNotCalled(t, "Create")

		_, err := f.snapshots.FindBySession(context.Background(), "cs_expired")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("completed session records the order", func(t *testing.T) {
		f := newFixture()
		mug := checkoutProduct(t, "Coffee Mug", "12.50", 10)
		freezeSnapshot(t, f, "cs_done", userID, mug, 1)

		f.gateway.On("VerifyWebhook", payload, "sig").Return(&payment.WebhookEvent{
			EventID:   "evt_2",
			EventType: "checkout.session.completed",
			SessionID: "cs_done",
			UserID:    userID,
			Paid:      true,
		}, nil)
		f.orderRepo.On("FindByPaymentSession", mock.Anything, "cs_done").Return(nil, shared.ErrNotFound)
		f.orderRepo.On("GenerateOrderNumber", mock.Anything).Return("ORD-2026-00004", nil)
		f.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.carts.On("Clear", mock.Anything, mock.Anything).Return(nil)

		assert.NoError(t, f.service.HandleWebhook(context.Background(), payload, "sig"))
		f.orderRepo.AssertExpectations(t)
	})

	t.Run("redelivery for a recorded session is a no-op", func(t *testing.T) {
		f := newFixture()
		money, err := valueobject.NewMoneyUSDFromString("12.50")
		require.NoError(t, err)
		item, err := order.NewOrderItem(uuid.New(), uuid.New(), "Coffee Mug", 1, money)
		require.NoError(t, err)
		existing, err := order.NewOrder("ORD-2026-00005", userID, "cs_done", []order.OrderItem{*item}, money)
		require.NoError(t, err)

		f.gateway.On("VerifyWebhook", payload, "sig").Return(&payment.WebhookEvent{
			EventID:   "evt_3",
			EventType: "checkout.session.completed",
			SessionID: "cs_done",
			UserID:    userID,
			Paid:      true,
		}, nil)
		f.orderRepo.On("FindByPaymentSession", mock.Anything, "cs_done").Return(existing, nil)

		assert.NoError(t, f.service.HandleWebhook(context.Background(), payload, "sig"))
		f.orderRepo.AssertNotCalled(t, "Create")
	})
}

func two() decimal.Decimal {
	return decimal.NewFromInt(2)
}
