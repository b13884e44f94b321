package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderItem is a priced line captured from a cart snapshot at checkout.
// The unit price is the authoritative catalog price at snapshot time,
// never a client-supplied value.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates an order item from a snapshot line
func NewOrderItem(orderID, productID uuid.UUID, productName string, quantity int, unitPrice valueobject.Money) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Amount:      unitPrice.Mul(int64(quantity)).Amount(),
		CreatedAt:   time.Now(),
	}, nil
}

// Order is a finalized purchase. It is created only after payment is
// confirmed and is immutable from then on: there is no update or delete
// path, only append.
type Order struct {
	shared.BaseEntity
	OrderNumber      string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID"`
	Total            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentSessionID string          `gorm:"type:varchar(100);uniqueIndex"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an order from a priced snapshot. The total must equal
// the sum of the item amounts; a mismatch means the snapshot was tampered
// with between pricing and recording.
func NewOrder(orderNumber string, userID uuid.UUID, paymentSessionID string, items []OrderItem, total valueobject.Money) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Order owner cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Cannot create an order without items")
	}

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount)
	}
	if !sum.Equal(total.Amount()) {
		return nil, shared.NewDomainError("TOTAL_MISMATCH", "Order total does not match the sum of item amounts")
	}

	o := &Order{
		BaseEntity:       shared.NewBaseEntity(),
		OrderNumber:      orderNumber,
		UserID:           userID,
		PaymentSessionID: paymentSessionID,
		Total:            total.Amount(),
	}
	for idx := range items {
		items[idx].OrderID = o.ID
	}
	o.Items = items
	return o, nil
}

// GetTotalMoney returns the order total as Money
func (o *Order) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.Total)
}

// ItemCount returns the number of lines in the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}
