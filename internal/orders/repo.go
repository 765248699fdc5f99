package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	"github.com/angelmondragon/fulfillment-router/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateOrder inserts the order together with its items.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListClaimCandidates returns pending, unassigned orders of the filter's
// class, oldest first, starting after the cursor. Every line of a returned
// order has an active pricing entry for the vendor and, when brands are set,
// a product of one of those brands.
func (r *repository) ListClaimCandidates(ctx context.Context, filter ClaimFilter, after *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("status = ? AND assigned_vendor_id IS NULL AND is_prime_class = ?", enums.OrderStatusPending, filter.IsPrime).
		Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id)").
		Where(`NOT EXISTS (
			SELECT 1 FROM order_items oi
			LEFT JOIN vendor_pricing_entries e ON e.product_id = oi.product_id AND e.vendor_id = ?
			WHERE oi.order_id = orders.id AND (e.id IS NULL OR e.is_active = ?)
		)`, filter.VendorID, false)
	if len(filter.BrandIDs) > 0 {
		query = query.Where(`NOT EXISTS (
			SELECT 1 FROM order_items oi
			LEFT JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = orders.id AND (p.id IS NULL OR p.brand_id NOT IN ?)
		)`, filter.BrandIDs)
	}
	if after != nil {
		query = query.Where("(created_at, id) > (?, ?)", after.CreatedAt, after.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at ASC, id ASC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ClaimOrder assigns the order only if it is still pending and unassigned.
// It reports false when another claimer got there first.
func (r *repository) ClaimOrder(ctx context.Context, claim ClaimUpdate) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND assigned_vendor_id IS NULL", claim.OrderID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":               enums.OrderStatusAccepted,
			"assigned_vendor_id":   claim.VendorID,
			"total":                claim.Totals.Total,
			"total_purchase_price": claim.Totals.TotalPurchasePrice,
			"total_profit":         claim.Totals.TotalProfit,
			"claimed_at":           claim.ClaimedAt,
			"updated_at":           claim.ClaimedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateItemPricing rewrites the vendor-dependent columns of each item.
func (r *repository) UpdateItemPricing(ctx context.Context, items []models.OrderItem) error {
	db := r.db.WithContext(ctx)
	for _, item := range items {
		err := db.Model(&models.OrderItem{}).
			Where("id = ?", item.ID).
			Updates(map[string]any{
				"vendor_id":         item.VendorID,
				"purchase_price":    item.PurchasePrice,
				"purchase_subtotal": item.PurchaseSubtotal,
				"profit":            item.Profit,
				"profit_percentage": item.ProfitPercentage,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// TransitionStatus moves the order from one status to another if it is still
// in from.
func (r *repository) TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListVendorOrders pages through orders assigned to a vendor, newest first.
func (r *repository) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, filters VendorOrderFilters, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("assigned_vendor_id = ?", vendorID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
