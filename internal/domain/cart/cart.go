package cart

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// CartLine is a single product entry in a cart.
// Invariant: Quantity >= 1. A line that would reach zero is removed,
// never persisted at zero.
type CartLine struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CartID    uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_cart_line_product,priority:1" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_line_product,priority:2" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the table name for GORM
func (CartLine) TableName() string {
	return "cart_lines"
}

// Cart is the set of lines an owner is currently shopping with, keyed by
// product ID. Guest carts live in the ephemeral session store and never
// reach SQL; user carts are persisted with UserID set.
type Cart struct {
	shared.BaseEntity
	UserID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Owner  Owner      `gorm:"-"`
	Lines  []CartLine `gorm:"foreignKey:CartID"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// NewCart creates an empty cart for the given owner
func NewCart(owner Owner) *Cart {
	c := &Cart{
		BaseEntity: shared.NewBaseEntity(),
		Owner:      owner,
		Lines:      make([]CartLine, 0),
	}
	if owner.IsUser() {
		userID := owner.UserID
		c.UserID = &userID
	}
	return c
}

// Line returns the line for a product, if present
func (c *Cart) Line(productID uuid.UUID) (*CartLine, bool) {
	for idx := range c.Lines {
		if c.Lines[idx].ProductID == productID {
			return &c.Lines[idx], true
		}
	}
	return nil, false
}

// UpsertLine sets the quantity for a product, overwriting any existing
// quantity (last-writer-wins). A quantity of zero or less removes the line.
func (c *Cart) UpsertLine(productID uuid.UUID, quantity int) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		c.RemoveLine(productID)
		return nil
	}

	now := time.Now()
	if line, ok := c.Line(productID); ok {
		line.Quantity = quantity
		line.UpdatedAt = now
	} else {
		c.Lines = append(c.Lines, CartLine{
			ID:        uuid.New(),
			CartID:    c.ID,
			ProductID: productID,
			Quantity:  quantity,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	c.UpdatedAt = now
	return nil
}

// AddItem is the single "add to cart" operation exposed to the UI:
// increment by one if the product is already present, otherwise insert
// with quantity one.
func (c *Cart) AddItem(productID uuid.UUID) error {
	if line, ok := c.Line(productID); ok {
		return c.UpsertLine(productID, line.Quantity+1)
	}
	return c.UpsertLine(productID, 1)
}

// RemoveLine removes the line for a product. Removing an absent line is
// not an error.
func (c *Cart) RemoveLine(productID uuid.UUID) {
	for idx := range c.Lines {
		if c.Lines[idx].ProductID == productID {
			c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
			c.UpdatedAt = time.Now()
			return
		}
	}
}

// Clear removes all lines
func (c *Cart) Clear() {
	c.Lines = make([]CartLine, 0)
	c.UpdatedAt = time.Now()
}

// IsEmpty returns true if the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// LineCount returns the number of distinct products in the cart
func (c *Cart) LineCount() int {
	return len(c.Lines)
}

// TotalQuantity returns the sum of all line quantities
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// Snapshot returns an immutable copy of the cart lines ordered by product
// ID. Checkout pricing and validation operate on a snapshot, never on the
// live cart.
func (c *Cart) Snapshot() []CartLine {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})
	return lines
}

// SetLines replaces the full line set. Used when loading a cart from
// storage and when applying a merge result.
func (c *Cart) SetLines(lines []CartLine) {
	c.Lines = make([]CartLine, 0, len(lines))
	now := time.Now()
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.CartID = c.ID
		c.Lines = append(c.Lines, line)
	}
	c.UpdatedAt = now
}
