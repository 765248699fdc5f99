package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	pricemath "github.com/angelmondragon/fulfillment-router/pkg/pricing"
)

// Terms are a vendor's effective cost terms for one order line.
type Terms struct {
	PurchasePrice  decimal.Decimal
	AvailableStock int
	Active         bool
}

// ResolveTerms picks the terms for a line against entry. When the line names a
// variant and the entry tracks variants, the variant row must exist and both
// the entry and the row must be active. An entry without a variant list prices
// the variant off its own mrp with the entry's percentage and shares the
// entry-level stock. ok is false when no terms apply.
func ResolveTerms(entry models.VendorPricingEntry, product models.Product, variantID *uuid.UUID) (terms Terms, ok bool) {
	if variantID == nil {
		return Terms{
			PurchasePrice:  entry.PurchasePrice,
			AvailableStock: entry.AvailableStock,
			Active:         entry.IsActive,
		}, true
	}

	if len(entry.Variants) > 0 {
		row, found := entry.Variant(*variantID)
		if !found {
			return Terms{}, false
		}
		return Terms{
			PurchasePrice:  row.PurchasePrice,
			AvailableStock: row.AvailableStock,
			Active:         entry.IsActive && row.IsActive,
		}, true
	}

	variant, found := product.Variant(*variantID)
	if !found {
		return Terms{}, false
	}
	return Terms{
		PurchasePrice:  pricemath.Percent(variant.MRP, entry.PurchasePercentage),
		AvailableStock: entry.AvailableStock,
		Active:         entry.IsActive,
	}, true
}

// ReferencePrices returns the catalog selling and purchase prices of a line.
func ReferencePrices(product models.Product, variantID *uuid.UUID) (selling, purchase decimal.Decimal, ok bool) {
	if variantID == nil {
		return product.SellingPrice, product.PurchasePrice, true
	}
	variant, found := product.Variant(*variantID)
	if !found {
		return decimal.Zero, decimal.Zero, false
	}
	return variant.SellingPrice, variant.PurchasePrice, true
}
