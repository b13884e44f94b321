package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// ConfirmRequest confirms a payment session after the shopper returns from
// the provider's hosted page.
type ConfirmRequest struct {
	SessionID string `json:"session_id" binding:"required,max=100"`
}

// SessionResponse is the provider session handed to the client
type SessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// OrderReceipt summarizes a recorded order
type OrderReceipt struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toReceipt(o *order.Order) *OrderReceipt {
	return &OrderReceipt{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Total:       o.Total,
		ItemCount:   o.ItemCount(),
		CreatedAt:   o.CreatedAt,
	}
}
