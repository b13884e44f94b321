package persistence

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCheckoutSnapshotRepository implements checkout.SnapshotRepository
// using GORM
type GormCheckoutSnapshotRepository struct {
	db *gorm.DB
}

// NewGormCheckoutSnapshotRepository creates a new GormCheckoutSnapshotRepository
func NewGormCheckoutSnapshotRepository(db *gorm.DB) *GormCheckoutSnapshotRepository {
	return &GormCheckoutSnapshotRepository{db: db}
}

// Save persists the snapshot header and all lines in a single transaction
func (r *GormCheckoutSnapshotRepository) Save(ctx context.Context, s *checkout.Snapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(s).Error
	})
}

// FindBySession finds the snapshot frozen for a payment session
func (r *GormCheckoutSnapshotRepository) FindBySession(ctx context.Context, sessionID string) (*checkout.Snapshot, error) {
	var s checkout.Snapshot
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("payment_session_id = ?", sessionID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// DeleteBySession removes a settled or expired snapshot and its lines
func (r *GormCheckoutSnapshotRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s checkout.Snapshot
		err := tx.Where("payment_session_id = ?", sessionID).First(&s).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("snapshot_id = ?", s.ID).Delete(&checkout.SnapshotLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&s).Error
	})
}

var _ checkout.SnapshotRepository = (*GormCheckoutSnapshotRepository)(nil)
