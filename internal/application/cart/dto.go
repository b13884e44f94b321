package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
)

// AddItemRequest represents an add-to-cart request
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// UpsertLineRequest sets the quantity of a cart line. Zero or negative
// removes the line, so the field is a pointer to let zero through binding.
type UpsertLineRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartLineResponse is a cart line enriched with catalog data
type CartLineResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Image       string          `json:"image,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	Available   bool            `json:"available"`
}

// CartResponse represents a cart in API responses
type CartResponse struct {
	Lines         []CartLineResponse `json:"lines"`
	TotalQuantity int                `json:"total_quantity"`
	Total         decimal.Decimal    `json:"total"`
}

// toCartResponse prices the cart lines against the catalog. Lines whose
// product has vanished from the catalog are omitted from the view (they
// stay in storage and are rejected at checkout).
func toCartResponse(lines []cart.CartLine, products map[uuid.UUID]*catalog.Product) CartResponse {
	resp := CartResponse{
		Lines: make([]CartLineResponse, 0, len(lines)),
		Total: decimal.Zero,
	}
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			continue
		}
		amount := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		resp.Lines = append(resp.Lines, CartLineResponse{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			Image:       product.Image,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
			Amount:      amount,
			Available:   product.IsActive() && product.HasStock(line.Quantity),
		})
		resp.TotalQuantity += line.Quantity
		resp.Total = resp.Total.Add(amount)
	}
	return resp
}
