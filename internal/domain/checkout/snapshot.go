package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// SnapshotLine is one priced cart line frozen at session creation time.
type SnapshotLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SnapshotID  uuid.UUID       `gorm:"type:uuid;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (SnapshotLine) TableName() string {
	return "checkout_snapshot_lines"
}

// UnitPriceMoney returns the line's unit price as Money
func (l *SnapshotLine) UnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.UnitPrice)
}

// Snapshot freezes the priced cart behind a payment session. The order is
// recorded from these lines, never from the live cart: whatever the shopper
// does to the cart while the hosted payment page is open, the recorded
// order matches what the provider charged.
type Snapshot struct {
	shared.BaseEntity
	PaymentSessionID string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Lines            []SnapshotLine  `gorm:"foreignKey:SnapshotID"`
	Total            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (Snapshot) TableName() string {
	return "checkout_snapshots"
}

// NewSnapshotLine creates a priced line for a snapshot
func NewSnapshotLine(snapshotID, productID uuid.UUID, productName string, quantity int, unitPrice valueobject.Money) (*SnapshotLine, error) {
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

	return &SnapshotLine{
		ID:          uuid.New(),
		SnapshotID:  snapshotID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		CreatedAt:   time.Now(),
	}, nil
}

// NewSnapshot creates a snapshot for a payment session. The total must
// equal the sum over the lines of quantity times unit price.
func NewSnapshot(paymentSessionID string, userID uuid.UUID, lines []SnapshotLine, total valueobject.Money) (*Snapshot, error) {
	if paymentSessionID == "" {
		return nil, shared.NewDomainError("INVALID_SESSION", "Payment session ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Snapshot owner cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Cannot create a snapshot without lines")
	}

	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if !sum.Equal(total.Amount()) {
		return nil, shared.NewDomainError("TOTAL_MISMATCH", "Snapshot total does not match the sum of its lines")
	}

	s := &Snapshot{
		BaseEntity:       shared.NewBaseEntity(),
		PaymentSessionID: paymentSessionID,
		UserID:           userID,
		Total:            total.Amount(),
	}
	for idx := range lines {
		lines[idx].SnapshotID = s.ID
	}
	s.Lines = lines
	return s, nil
}

// GetTotalMoney returns the snapshot total as Money
func (s *Snapshot) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(s.Total)
}
