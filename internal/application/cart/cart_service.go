package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CartService handles cart operations for both guest and account owners.
// The choice of backing store is a single switch on the owner kind; all
// business rules above it are shared.
type CartService struct {
	guestStore  cart.GuestCartStore
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	guestStore cart.GuestCartStore,
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		guestStore:  guestStore,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Get returns the owner's cart priced against the catalog
func (s *CartService) Get(ctx context.Context, owner cart.Owner) (*CartResponse, error) {
	c, err := s.loadCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	products, err := s.loadProducts(ctx, c.Lines)
	if err != nil {
		return nil, err
	}

	resp := toCartResponse(c.Lines, products)
	return &resp, nil
}

// AddItem increments the quantity for a product by one, inserting the line
// at quantity one if the product is not in the cart yet.
func (s *CartService) AddItem(ctx context.Context, owner cart.Owner, productID uuid.UUID) (*CartResponse, error) {
	if err := s.requirePurchasable(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.loadCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := c.AddItem(productID); err != nil {
		return nil, err
	}
	if err := s.saveCart(ctx, owner, c); err != nil {
		return nil, err
	}

	s.logger.Debug("Added item to cart",
		zap.String("owner", owner.String()),
		zap.String("product_id", productID.String()))

	return s.Get(ctx, owner)
}

// UpsertLine sets the quantity for a product, overwriting any previous
// quantity. A quantity of zero or less removes the line.
func (s *CartService) UpsertLine(ctx context.Context, owner cart.Owner, productID uuid.UUID, quantity int) (*CartResponse, error) {
	if quantity > 0 {
		if err := s.requirePurchasable(ctx, productID); err != nil {
			return nil, err
		}
	}

	c, err := s.loadCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := c.UpsertLine(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.saveCart(ctx, owner, c); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner)
}

// RemoveLine removes a product from the cart. Removing an absent line is
// not an error.
func (s *CartService) RemoveLine(ctx context.Context, owner cart.Owner, productID uuid.UUID) (*CartResponse, error) {
	c, err := s.loadCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.RemoveLine(productID)
	if err := s.saveCart(ctx, owner, c); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner)
}

// Clear removes all lines from the owner's cart
func (s *CartService) Clear(ctx context.Context, owner cart.Owner) error {
	switch owner.Kind {
	case cart.OwnerKindGuest:
		return s.guestStore.Clear(ctx, owner.SessionID)
	case cart.OwnerKindUser:
		return s.cartRepo.Clear(ctx, owner.UserID)
	}
	return shared.NewDomainError("INVALID_OWNER", "Unknown cart owner kind")
}

// Lines returns the raw cart lines for the owner. Checkout uses this to
// snapshot the cart before pricing.
func (s *CartService) Lines(ctx context.Context, owner cart.Owner) ([]cart.CartLine, error) {
	c, err := s.loadCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// loadCart materializes the owner's cart from its backing store. An owner
// with no stored cart gets an empty one.
func (s *CartService) loadCart(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	switch owner.Kind {
	case cart.OwnerKindGuest:
		lines, err := s.guestStore.Get(ctx, owner.SessionID)
		if err != nil {
			return nil, err
		}
		c := cart.NewCart(owner)
		c.SetLines(lines)
		return c, nil
	case cart.OwnerKindUser:
		c, err := s.cartRepo.FindByUser(ctx, owner.UserID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return cart.NewCart(owner), nil
			}
			return nil, err
		}
		return c, nil
	}
	return nil, shared.NewDomainError("INVALID_OWNER", "Unknown cart owner kind")
}

func (s *CartService) saveCart(ctx context.Context, owner cart.Owner, c *cart.Cart) error {
	switch owner.Kind {
	case cart.OwnerKindGuest:
		return s.guestStore.Replace(ctx, owner.SessionID, c.Lines)
	case cart.OwnerKindUser:
		return s.cartRepo.Save(ctx, c)
	}
	return shared.NewDomainError("INVALID_OWNER", "Unknown cart owner kind")
}

// requirePurchasable checks that the product exists and is active
func (s *CartService) requirePurchasable(ctx context.Context, productID uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("PRODUCT_NOT_FOUND", "Product does not exist")
		}
		return err
	}
	if !product.IsActive() {
		return shared.NewDomainError("PRODUCT_INACTIVE", "Product is not available for sale")
	}
	return nil
}

func (s *CartService) loadProducts(ctx context.Context, lines []cart.CartLine) (map[uuid.UUID]*catalog.Product, error) {
	if len(lines) == 0 {
		return map[uuid.UUID]*catalog.Product{}, nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for idx := range products {
		byID[products[idx].ID] = &products[idx]
	}
	return byID, nil
}
