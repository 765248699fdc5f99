package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/internal/ledger"
	"github.com/angelmondragon/fulfillment-router/internal/notifications"
	vendorpricing "github.com/angelmondragon/fulfillment-router/internal/pricing"
	"github.com/angelmondragon/fulfillment-router/internal/vendors"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/metrics"
	"github.com/angelmondragon/fulfillment-router/pkg/pagination"
	"github.com/angelmondragon/fulfillment-router/pkg/pricing"
)

// ListClaimableOrders returns the open orders the vendor could claim right
// now, oldest first, each with what the vendor would earn on it.
func (s *service) ListClaimableOrders(ctx context.Context, vendorID uuid.UUID) ([]ClaimableOrderDTO, error) {
	vendor, err := s.vendors.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsApproved {
		return nil, pkgerrors.New(pkgerrors.CodeVendorNotEligible, "vendor is not approved")
	}

	filter := ClaimFilter{VendorID: vendor.ID, IsPrime: vendor.Class.HandlesPrime()}
	if filter.IsPrime {
		filter.BrandIDs = vendor.BrandIDs
	}

	out := []ClaimableOrderDTO{}
	var after *pagination.Cursor
	for {
		page, err := s.repo.ListClaimCandidates(ctx, filter, after, claimPageSize)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open orders")
		}
		claimable, err := s.claimable(ctx, vendor, page)
		if err != nil {
			return nil, err
		}
		out = append(out, claimable...)
		if len(page) < claimPageSize {
			return out, nil
		}
		last := page[len(page)-1]
		after = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
}

// claimable keeps the candidates whose every line resolves to active terms
// for the vendor, variant rows included.
func (s *service) claimable(ctx context.Context, vendor *models.Vendor, candidates []models.Order) ([]ClaimableOrderDTO, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	var allItems []models.OrderItem
	for _, order := range candidates {
		allItems = append(allItems, order.Items...)
	}
	productIDs := productIDsOf(allItems)
	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	entries, err := s.pricing.EntriesFor(ctx, vendor.ID, productIDs)
	if err != nil {
		return nil, err
	}

	out := make([]ClaimableOrderDTO, 0, len(candidates))
	for _, order := range candidates {
		brands, ok := brandIDsOf(order.Items, products)
		if !ok || len(order.Items) == 0 || !vendors.Eligible(vendor, order.IsPrimeClass, brands) {
			continue
		}
		earnings, ok := prospectiveEarnings(order.Items, products, entries)
		if !ok {
			continue
		}
		out = append(out, ClaimableOrderDTO{
			OrderDTO:            mapOrderDTO(order),
			ProspectiveEarnings: earnings,
		})
	}
	return out, nil
}

// prospectiveEarnings sums the vendor's purchase price over every line. It
// reports false if any line lacks active terms. Stock is not checked.
func prospectiveEarnings(items []models.OrderItem, products map[uuid.UUID]models.Product, entries map[uuid.UUID]models.VendorPricingEntry) (decimal.Decimal, bool) {
	total := decimal.Zero
	for _, item := range items {
		entry, ok := entries[item.ProductID]
		if !ok {
			return decimal.Zero, false
		}
		terms, ok := vendorpricing.ResolveTerms(entry, products[item.ProductID], item.VariantID)
		if !ok || !terms.Active {
			return decimal.Zero, false
		}
		total = total.Add(terms.PurchasePrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(pricing.Scale), true
}

// ClaimOrder hands a pending prime order to the first eligible vendor to ask.
// Losers of a concurrent claim get ALREADY_CLAIMED.
func (s *service) ClaimOrder(ctx context.Context, orderID, vendorID uuid.UUID) (*OrderDTO, error) {
	start := s.now()
	order, err := s.claim(ctx, orderID, vendorID)
	s.metrics.ObserveClaim(claimOutcome(err), s.now().Sub(start))

	logCtx := s.logCtx(ctx, orderID, &vendorID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeAlreadyClaimed) {
			s.logg.Info(logCtx, "claim rejected: order already claimed")
		}
		return nil, err
	}
	s.logg.Info(logCtx, "order claimed")

	s.afterClaim(ctx, order)

	dto := mapOrderDTO(*order)
	return &dto, nil
}

func (s *service) claim(ctx context.Context, orderID, vendorID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending || order.AssignedVendorID != nil {
		return nil, errAlreadyClaimed()
	}

	vendor, err := s.vendors.GetVendor(ctx, vendorID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeVendorNotEligible, "vendor not found")
		}
		return nil, err
	}

	productIDs := productIDsOf(order.Items)
	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	brands, ok := brandIDsOf(order.Items, products)
	if !ok || !vendors.Eligible(vendor, order.IsPrimeClass, brands) {
		return nil, pkgerrors.New(pkgerrors.CodeVendorNotEligible, "vendor is not eligible for this order")
	}

	entries, err := s.pricing.EntriesFor(ctx, vendor.ID, productIDs)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		terms, err := claimTerms(*item, products, entries)
		if err != nil {
			return nil, err
		}
		line := pricing.PriceLine(item.SellingPrice, terms.PurchasePrice, item.Quantity)
		item.VendorID = &vendor.ID
		item.PurchasePrice = line.PurchasePrice
		item.Subtotal = line.Subtotal
		item.PurchaseSubtotal = line.PurchaseSubtotal
		item.Profit = line.Profit
		item.ProfitPercentage = line.ProfitPercentage
		lines = append(lines, line)
	}
	totals := pricing.Sum(lines)
	claimedAt := s.now().UTC()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		won, err := repo.ClaimOrder(ctx, ClaimUpdate{
			OrderID:   order.ID,
			VendorID:  vendor.ID,
			Totals:    totals,
			ClaimedAt: claimedAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order")
		}
		if !won {
			return errAlreadyClaimed()
		}
		if err := repo.UpdateItemPricing(ctx, order.Items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reprice order items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusAccepted
	order.AssignedVendorID = &vendor.ID
	order.Total = totals.Total
	order.TotalPurchasePrice = totals.TotalPurchasePrice
	order.TotalProfit = totals.TotalProfit
	order.ClaimedAt = &claimedAt
	order.UpdatedAt = claimedAt
	return order, nil
}

func claimTerms(item models.OrderItem, products map[uuid.UUID]models.Product, entries map[uuid.UUID]models.VendorPricingEntry) (vendorpricing.Terms, error) {
	details := map[string]any{"product_id": item.ProductID}
	if item.VariantID != nil {
		details["variant_id"] = *item.VariantID
	}

	entry, ok := entries[item.ProductID]
	if !ok {
		return vendorpricing.Terms{}, pkgerrors.New(pkgerrors.CodeProductUnavailable, "vendor does not carry this product").WithDetails(details)
	}
	terms, ok := vendorpricing.ResolveTerms(entry, products[item.ProductID], item.VariantID)
	if !ok || !terms.Active {
		return vendorpricing.Terms{}, pkgerrors.New(pkgerrors.CodeProductUnavailable, "vendor pricing is inactive").WithDetails(details)
	}
	if terms.AvailableStock < item.Quantity {
		details["available_stock"] = terms.AvailableStock
		details["quantity"] = item.Quantity
		return vendorpricing.Terms{}, pkgerrors.New(pkgerrors.CodeProductUnavailable, "insufficient vendor stock").WithDetails(details)
	}
	return terms, nil
}

// afterClaim records the sale and notifies the vendor. Failures are logged and
// never change the claim result.
func (s *service) afterClaim(ctx context.Context, order *models.Order) {
	ctx = context.WithoutCancel(ctx)
	vendorID := *order.AssignedVendorID
	logCtx := s.logCtx(ctx, order.ID, &vendorID)

	for _, item := range order.Items {
		event, err := s.ledger.RecordSale(ctx, ledger.SaleInput{
			OrderID:   order.ID,
			VendorID:  vendorID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Amount:    item.PurchaseSubtotal,
		})
		lineCtx := s.logg.WithField(logCtx, "product_id", item.ProductID.String())
		if err != nil {
			s.logg.Error(lineCtx, "record sale failed", err)
			continue
		}
		if shortfall := ledger.StockShortfall(event); shortfall > 0 {
			s.logg.Warn(s.logg.WithField(lineCtx, "stock_shortfall", shortfall), "sale recorded with stock shortfall")
		}
	}

	s.notifier.Emit(ctx, notifications.Event{
		Type:         enums.NotificationTypeOrderClaimed,
		OrderID:      order.ID,
		VendorID:     &vendorID,
		IsPrimeClass: order.IsPrimeClass,
		Status:       order.Status,
		OccurredAt:   claimedAtOr(order.ClaimedAt, s.now()),
		Payload:      map[string]any{"total_purchase_price": order.TotalPurchasePrice},
	})
}

func claimedAtOr(at *time.Time, fallback time.Time) time.Time {
	if at != nil {
		return *at
	}
	return fallback.UTC()
}

func errAlreadyClaimed() error {
	return pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "order is no longer available")
}

func claimOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeClaimed
	case pkgerrors.IsCode(err, pkgerrors.CodeAlreadyClaimed):
		return metrics.OutcomeAlreadyClaimed
	case pkgerrors.IsCode(err, pkgerrors.CodeVendorNotEligible):
		return metrics.OutcomeIneligible
	case pkgerrors.IsCode(err, pkgerrors.CodeProductUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
