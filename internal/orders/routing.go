package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/internal/notifications"
	vendorpricing "github.com/angelmondragon/fulfillment-router/internal/pricing"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/pricing"
)

const (
	pathPrime = "prime"
	pathShop  = "shop"
)

// pricedLine is a validated, merged order line with its product loaded.
type pricedLine struct {
	LineInput
	product models.Product
	amounts pricing.Line
}

type lineKey struct {
	product uuid.UUID
	variant uuid.UUID
}

// CreateOrder validates and classifies the order, then either parks it for
// prime vendors to claim or hands it straight to the shop fulfiller.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	lines := mergeLines(input.Lines)

	products, err := s.catalog.GetProducts(ctx, lineProductIDs(lines))
	if err != nil {
		return nil, err
	}

	priced := make([]pricedLine, 0, len(lines))
	for _, line := range lines {
		product, err := resolveLineProduct(line, products)
		if err != nil {
			return nil, err
		}
		priced = append(priced, pricedLine{LineInput: line, product: product})
	}

	isPrime, err := orderClass(priced)
	if err != nil {
		return nil, err
	}

	for i := range priced {
		selling, purchase, _ := vendorpricing.ReferencePrices(priced[i].product, priced[i].VariantID)
		if !selling.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidPricing, "product has no selling price").
				WithDetails(map[string]any{"product_id": priced[i].ProductID})
		}
		priced[i].amounts = pricing.PriceLine(selling, purchase, priced[i].Quantity)
	}

	address := input.Address.Normalized()
	order := &models.Order{
		ID:              uuid.New(),
		CustomerID:      input.CustomerID,
		Status:          enums.OrderStatusPending,
		IsPrimeClass:    isPrime,
		DeliveryAddress: address,
		Pincode:         address.Pincode,
	}

	path := pathPrime
	var fulfiller *models.Vendor
	if !isPrime {
		path = pathShop
		fulfiller, err = s.vendors.GetApprovedFulfiller(ctx, enums.VendorClassShop)
		if err != nil {
			return nil, err
		}
		if err := s.priceForFulfiller(ctx, fulfiller, priced); err != nil {
			return nil, err
		}
		order.Status = enums.OrderStatusAccepted
		order.AssignedVendorID = &fulfiller.ID
	}

	lineTotals := make([]pricing.Line, 0, len(priced))
	for i, line := range priced {
		item := models.OrderItem{
			ID:               uuid.New(),
			OrderID:          order.ID,
			Position:         i,
			ProductID:        line.ProductID,
			VariantID:        line.VariantID,
			Quantity:         line.Quantity,
			SellingPrice:     line.amounts.SellingPrice,
			PurchasePrice:    line.amounts.PurchasePrice,
			Subtotal:         line.amounts.Subtotal,
			PurchaseSubtotal: line.amounts.PurchaseSubtotal,
			Profit:           line.amounts.Profit,
			ProfitPercentage: line.amounts.ProfitPercentage,
		}
		if fulfiller != nil {
			item.VendorID = &fulfiller.ID
		}
		order.Items = append(order.Items, item)
		lineTotals = append(lineTotals, line.amounts)
	}
	totals := pricing.Sum(lineTotals)
	order.Total = totals.Total
	order.TotalPurchasePrice = totals.TotalPurchasePrice
	order.TotalProfit = totals.TotalProfit

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	s.metrics.IncRouted(path)

	logCtx := s.logCtx(ctx, order.ID, order.AssignedVendorID)
	s.logg.Info(s.logg.WithField(logCtx, "path", path), "order routed")

	event := notifications.Event{
		Type:         enums.NotificationTypeOrderAvailable,
		OrderID:      order.ID,
		IsPrimeClass: isPrime,
		Status:       order.Status,
		Payload:      map[string]any{"total": order.Total, "pincode": order.Pincode},
	}
	if fulfiller != nil {
		event.Type = enums.NotificationTypeOrderAssigned
		event.VendorID = &fulfiller.ID
	}
	s.notifier.Emit(ctx, event)

	dto := mapOrderDTO(*order)
	return &dto, nil
}

// priceForFulfiller replaces reference purchase prices with the fulfiller's
// own terms. Missing entries are created lazily; if that fails the reference
// price stands.
func (s *service) priceForFulfiller(ctx context.Context, fulfiller *models.Vendor, lines []pricedLine) error {
	entries, err := s.pricing.EntriesFor(ctx, fulfiller.ID, pricedProductIDs(lines))
	if err != nil {
		return err
	}

	for i := range lines {
		line := &lines[i]
		entry, ok := entries[line.ProductID]
		if !ok {
			created, err := s.pricing.EnsureEntry(ctx, fulfiller, &line.product)
			if err != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"vendor_id":  fulfiller.ID.String(),
					"product_id": line.ProductID.String(),
				})
				s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "lazy pricing entry creation failed")
				continue
			}
			entry = *created
			entries[line.ProductID] = entry
		}

		terms, ok := vendorpricing.ResolveTerms(entry, line.product, line.VariantID)
		if !ok {
			continue
		}
		line.amounts = pricing.PriceLine(line.amounts.SellingPrice, terms.PurchasePrice, line.Quantity)
	}
	return nil
}

func validateCreate(input CreateOrderInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidOrder, "customer id is required")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidOrder, "order must contain at least one line")
	}
	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeInvalidOrder, "product id is required").
				WithDetails(map[string]any{"line": i})
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidOrder, "quantity must be greater than zero").
				WithDetails(map[string]any{"line": i})
		}
	}
	if err := input.Address.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidOrder, err, "invalid delivery address")
	}
	return nil
}

// mergeLines sums quantities of lines naming the same product and variant,
// keeping first-seen order.
func mergeLines(lines []LineInput) []LineInput {
	index := make(map[lineKey]int, len(lines))
	merged := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		key := lineKey{product: line.ProductID}
		if line.VariantID != nil {
			key.variant = *line.VariantID
		}
		if i, ok := index[key]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[key] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func lineProductIDs(lines []LineInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

func pricedProductIDs(lines []pricedLine) []uuid.UUID {
	raw := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		raw = append(raw, line.LineInput)
	}
	return lineProductIDs(raw)
}

func resolveLineProduct(line LineInput, products map[uuid.UUID]models.Product) (models.Product, error) {
	details := map[string]any{"product_id": line.ProductID}
	product, ok := products[line.ProductID]
	if !ok || !product.IsActive {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeInvalidOrder, "product is unknown or inactive").WithDetails(details)
	}
	if product.HasVariants && line.VariantID == nil {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeInvalidOrder, "product requires a variant").WithDetails(details)
	}
	if !product.HasVariants && line.VariantID != nil {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeInvalidOrder, "product has no variants").WithDetails(details)
	}
	if line.VariantID != nil {
		variant, ok := product.Variant(*line.VariantID)
		if !ok || !variant.IsActive {
			details["variant_id"] = *line.VariantID
			return models.Product{}, pkgerrors.New(pkgerrors.CodeInvalidOrder, "variant is unknown or inactive").WithDetails(details)
		}
	}
	return product, nil
}

// orderClass returns whether every line is prime. Mixed orders are rejected
// before anything is written.
func orderClass(lines []pricedLine) (bool, error) {
	var prime, regular []uuid.UUID
	for _, line := range lines {
		if line.product.IsPrimeClass {
			prime = append(prime, line.ProductID)
		} else {
			regular = append(regular, line.ProductID)
		}
	}
	if len(prime) > 0 && len(regular) > 0 {
		return false, pkgerrors.New(pkgerrors.CodeMixedClass, "prime and regular products must be ordered separately").
			WithDetails(map[string]any{"prime_product_ids": prime, "regular_product_ids": regular})
	}
	return len(prime) > 0, nil
}
