package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	"github.com/angelmondragon/fulfillment-router/pkg/pagination"
	"github.com/angelmondragon/fulfillment-router/pkg/pricing"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListClaimCandidates(ctx context.Context, filter ClaimFilter, after *pagination.Cursor, limit int) ([]models.Order, error)
	ClaimOrder(ctx context.Context, claim ClaimUpdate) (bool, error)
	UpdateItemPricing(ctx context.Context, items []models.OrderItem) error
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time) (bool, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, filters VendorOrderFilters, limit int, cursor *pagination.Cursor) ([]models.Order, error)
}

// ClaimFilter narrows open orders to the ones a vendor could claim. BrandIDs
// is empty when the vendor accepts any brand.
type ClaimFilter struct {
	VendorID uuid.UUID
	IsPrime  bool
	BrandIDs []uuid.UUID
}

// ClaimUpdate is the conditional write that hands a pending order to a vendor.
type ClaimUpdate struct {
	OrderID   uuid.UUID
	VendorID  uuid.UUID
	Totals    pricing.Totals
	ClaimedAt time.Time
}

// VendorOrderFilters narrows a vendor's assigned order list.
type VendorOrderFilters struct {
	Status *enums.OrderStatus
}
