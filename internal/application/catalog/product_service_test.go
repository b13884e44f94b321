package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// MockProductRepository is a mock implementation of ProductRepository
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

func testProduct(t *testing.T, name string, price string, stock int) *catalog.Product {
	t.Helper()
	money, err := valueobject.NewMoneyUSDFromString(price)
	require.NoError(t, err)
	product, err := catalog.NewProduct(name, "", money, stock)
	require.NoError(t, err)
	return product
}

func TestProductService_Create(t *testing.T) {
	t.Run("creates active product", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo)

		repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

		resp, err := service.Create(context.Background(), CreateProductRequest{
			Name:  "Coffee Mug",
			Price: decimal.NewFromFloat(12.50),
			Stock: 10,
		})

		require.NoError(t, err)
		assert.Equal(t, "Coffee Mug", resp.Name)
		assert.Equal(t, "active", resp.Status)
		assert.Equal(t, 10, resp.Stock)
		repo.AssertExpectations(t)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo)

		_, err := service.Create(context.Background(), CreateProductRequest{
			Name:  "Coffee Mug",
			Price: decimal.NewFromFloat(-1),
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PRICE", domainErr.Code)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestProductService_Update(t *testing.T) {
	t.Run("applies consolidated patch", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo)
		product := testProduct(t, "Coffee Mug", "12.50", 10)

		repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		repo.On("Save", mock.Anything, product).Return(nil)

		newName := "Espresso Mug"
		newPrice := decimal.NewFromFloat(14.00)
		newStock := 3
		resp, err := service.Update(context.Background(), product.ID, UpdateProductRequest{
			Name:  &newName,
			Price: &newPrice,
			Stock: &newStock,
		})

		require.NoError(t, err)
		assert.Equal(t, "Espresso Mug", resp.Name)
		assert.True(t, newPrice.Equal(resp.Price))
		assert.Equal(t, 3, resp.Stock)
		repo.AssertExpectations(t)
	})

	t.Run("invalid field aborts whole patch", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo)
		product := testProduct(t, "Coffee Mug", "12.50", 10)

		repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		empty := "  "
		newStock := 5
		_, err := service.Update(context.Background(), product.ID, UpdateProductRequest{
			Name:  &empty,
			Stock: &newStock,
		})

		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("status transition via patch", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo)
		product := testProduct(t, "Coffee Mug", "12.50", 10)

		repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		repo.On("Save", mock.Anything, product).Return(nil)

		inactive := "inactive"
		resp, err := service.Update(context.Background(), product.ID, UpdateProductRequest{
			Status: &inactive,
		})

		require.NoError(t, err)
		assert.Equal(t, "inactive", resp.Status)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo)
		id := uuid.New()

		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := service.Update(context.Background(), id, UpdateProductRequest{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestProductService_List(t *testing.T) {
	repo := new(MockProductRepository)
	service := NewProductService(repo)

	products := []catalog.Product{
		*testProduct(t, "Coffee Mug", "12.50", 10),
		*testProduct(t, "Tea Pot", "24.00", 2),
	}

	repo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).Return(products, nil)
	repo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).Return(int64(2), nil)

	result, err := service.List(context.Background(), ProductListFilter{Page: 1, PageSize: 20})

	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(2), result.Total)
	assert.Equal(t, 1, result.TotalPages)
}

func TestProductService_List_FilterMapping(t *testing.T) {
	repo := new(MockProductRepository)
	service := NewProductService(repo)

	minPrice := 5.0
	inStock := true
	var captured shared.Filter
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		captured = f
		return true
	})).Return([]catalog.Product{}, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	_, err := service.List(context.Background(), ProductListFilter{
		Search:   "mug",
		Status:   "active",
		MinPrice: &minPrice,
		InStock:  &inStock,
	})

	require.NoError(t, err)
	assert.Equal(t, "mug", captured.Search)
	assert.Equal(t, "active", captured.Filters["status"])
	assert.Equal(t, 5.0, captured.Filters["min_price"])
	assert.Equal(t, true, captured.Filters["in_stock"])
}

func TestProductService_Delete(t *testing.T) {
	repo := new(MockProductRepository)
	service := NewProductService(repo)
	id := uuid.New()

	repo.On("Delete", mock.Anything, id).Return(nil)

	assert.NoError(t, service.Delete(context.Background(), id))
	repo.AssertExpectations(t)
}
