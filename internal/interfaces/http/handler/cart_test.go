package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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

func testProduct(t *testing.T, name string, stock int) *catalog.Product {
	t.Helper()
	price, err := valueobject.NewMoneyUSDFromString("12.50")
	require.NoError(t, err)
	product, err := catalog.NewProduct(name, "", price, stock)
	require.NoError(t, err)
	require.NoError(t, product.Activate())
	return product
}

func setupCartRouter(productRepo *MockProductRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	guestStore := cache.NewInMemoryGuestCartStore(time.Hour)
	cartService := appcart.NewCartService(guestStore, nil, productRepo, zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.SessionID())
	api := engine.Group("/api/v1")
	NewCartHandler(cartService).RegisterRoutes(api)
	return engine
}

func TestCartHandler_GuestFlow(t *testing.T) {
	productRepo := new(MockProductRepository)
	engine := setupCartRouter(productRepo)

	product := testProduct(t, "Coffee Mug", 10)
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{*product}, nil)

	addItem := func() *httptest.ResponseRecorder {
		body, _ := json.Marshal(appcart.AddItemRequest{ProductID: product.ID})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.SessionHeaderKey, "sess-guest-1")
		engine.ServeHTTP(w, req)
		return w
	}

	w := addItem()
	require.Equal(t, http.StatusOK, w.Code)

	w = addItem()
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Data    appcart.CartResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Lines, 1)
	assert.Equal(t, 2, resp.Data.Lines[0].Quantity)
	assert.Equal(t, "25", resp.Data.Total.String())
}

func TestCartHandler_MissingSession(t *testing.T) {
	productRepo := new(MockProductRepository)
	engine := setupCartRouter(productRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartHandler_UpsertZeroRemovesLine(t *testing.T) {
	productRepo := new(MockProductRepository)
	engine := setupCartRouter(productRepo)

	product := testProduct(t, "Coffee Mug", 10)
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	productRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{*product}, nil)

	body, _ := json.Marshal(appcart.AddItemRequest{ProductID: product.ID})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SessionHeaderKey, "sess-guest-2")
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut,
		fmt.Sprintf("/api/v1/cart/items/%s", product.ID),
		bytes.NewReader([]byte(`{"quantity": 0}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SessionHeaderKey, "sess-guest-2")
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data appcart.CartResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Lines)
}

func TestCartHandler_InvalidProductID(t *testing.T) {
	productRepo := new(MockProductRepository)
	engine := setupCartRouter(productRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/not-a-uuid", nil)
	req.Header.Set(middleware.SessionHeaderKey, "sess-guest-3")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
