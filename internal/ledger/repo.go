package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
)

// Repository persists ledger events. Rows are append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.LedgerEvent) error
	// FindSale returns the sale already recorded for an order line, or nil.
	FindSale(ctx context.Context, orderID, productID uuid.UUID, variantID *uuid.UUID) (*models.LedgerEvent, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) Create(ctx context.Context, event *models.LedgerEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *gormRepository) FindSale(ctx context.Context, orderID, productID uuid.UUID, variantID *uuid.UUID) (*models.LedgerEvent, error) {
	query := r.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ? AND type = ?", orderID, productID, enums.LedgerEventTypeSaleRecorded)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}

	var event models.LedgerEvent
	err := query.Order("created_at ASC").Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
