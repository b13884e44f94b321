package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCartRepository implements cart.CartRepository using GORM.
// It stores account carts only; guest carts live in the cache layer.
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUser finds the cart belonging to a user, with its lines preloaded
func (r *GormCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	owner, err := cart.UserOwner(userID)
	if err != nil {
		return nil, err
	}
	c.Owner = owner
	return &c, nil
}

// Save creates or updates a cart and its lines
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(c).Error; err != nil {
			return err
		}
		return r.syncLines(tx, c)
	})
}

// ReplaceLines atomically replaces the full line set of a user's cart,
// creating the cart if it does not exist yet. Either all lines are written
// or none are.
func (r *GormCartRepository) ReplaceLines(ctx context.Context, userID uuid.UUID, lines []cart.CartLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c cart.Cart
		err := tx.Where("user_id = ?", userID).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			owner, ownerErr := cart.UserOwner(userID)
			if ownerErr != nil {
				return ownerErr
			}
			c = *cart.NewCart(owner)
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		c.SetLines(lines)
		return r.syncLines(tx, &c)
	})
}

// Clear removes all lines from a user's cart. The cart row itself stays.
func (r *GormCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c cart.Cart
		err := tx.Where("user_id = ?", userID).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ?", c.ID).Delete(&cart.CartLine{}).Error
	})
}

// syncLines makes the stored line set match the in-memory one: stale lines
// are deleted, current lines are upserted.
func (r *GormCartRepository) syncLines(tx *gorm.DB, c *cart.Cart) error {
	currentIDs := make([]uuid.UUID, len(c.Lines))
	for i, line := range c.Lines {
		currentIDs[i] = line.ID
	}

	if len(currentIDs) > 0 {
		if err := tx.Where("cart_id = ? AND id NOT IN ?", c.ID, currentIDs).
			Delete(&cart.CartLine{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("cart_id = ?", c.ID).
			Delete(&cart.CartLine{}).Error; err != nil {
			return err
		}
	}

	for i := range c.Lines {
		c.Lines[i].CartID = c.ID
		if err := tx.Save(&c.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

var _ cart.CartRepository = (*GormCartRepository)(nil)
