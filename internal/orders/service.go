// Package orders routes customer orders to a fulfilling vendor and runs the
// first-come-first-serve claim protocol for prime orders.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/internal/ledger"
	"github.com/angelmondragon/fulfillment-router/internal/notifications"
	"github.com/angelmondragon/fulfillment-router/pkg/db"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/logger"
	"github.com/angelmondragon/fulfillment-router/pkg/metrics"
	"github.com/angelmondragon/fulfillment-router/pkg/pagination"
)

// claimPageSize bounds each candidate read of a claimable listing.
const claimPageSize = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogReader interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type vendorDirectory interface {
	GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	GetApprovedFulfiller(ctx context.Context, class enums.VendorClass) (*models.Vendor, error)
}

type pricingStore interface {
	EntriesFor(ctx context.Context, vendorID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]models.VendorPricingEntry, error)
	EnsureEntry(ctx context.Context, vendor *models.Vendor, product *models.Product) (*models.VendorPricingEntry, error)
}

type saleRecorder interface {
	RecordSale(ctx context.Context, input ledger.SaleInput) (*models.LedgerEvent, error)
}

type notifier interface {
	Emit(ctx context.Context, event notifications.Event)
}

// Service defines order routing, acceptance and fulfillment operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	ListClaimableOrders(ctx context.Context, vendorID uuid.UUID) ([]ClaimableOrderDTO, error)
	ClaimOrder(ctx context.Context, orderID, vendorID uuid.UUID) (*OrderDTO, error)
	AdvanceStatus(ctx context.Context, orderID, vendorID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
	CancelOrder(ctx context.Context, orderID, customerID uuid.UUID) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, filters VendorOrderFilters, params pagination.Params) (*VendorOrderList, error)
}

// ServiceParams carries the order service collaborators.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Catalog    catalogReader
	Vendors    vendorDirectory
	Pricing    pricingStore
	Ledger     saleRecorder
	Notifier   notifier
	Metrics    *metrics.RoutingMetrics
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  catalogReader
	vendors  vendorDirectory
	pricing  pricingStore
	ledger   saleRecorder
	notifier notifier
	metrics  *metrics.RoutingMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repository == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog required")
	case params.Vendors == nil:
		return nil, fmt.Errorf("vendor directory required")
	case params.Pricing == nil:
		return nil, fmt.Errorf("pricing store required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repository,
		tx:       params.Tx,
		catalog:  params.Catalog,
		vendors:  params.Vendors,
		pricing:  params.Pricing,
		ledger:   params.Ledger,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) logCtx(ctx context.Context, orderID uuid.UUID, vendorID *uuid.UUID) context.Context {
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	if vendorID != nil {
		ctx = s.logg.WithVendorID(ctx, vendorID.String())
	}
	return ctx
}

func productIDsOf(items []models.OrderItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func brandIDsOf(items []models.OrderItem, products map[uuid.UUID]models.Product) ([]uuid.UUID, bool) {
	brands := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, false
		}
		brands = append(brands, product.BrandID)
	}
	return brands, true
}
