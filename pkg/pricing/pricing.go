// Package pricing holds the money math shared by the catalog, the vendor
// pricing store and order routing. All amounts are rounded to 2 places.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const Scale = 2

var hundred = decimal.NewFromInt(100)

// Triple is the derived price set of a product or variant.
type Triple struct {
	SellingPrice  decimal.Decimal `json:"selling_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Discount      decimal.Decimal `json:"discount"`
}

// Line is a priced order line.
type Line struct {
	SellingPrice     decimal.Decimal
	PurchasePrice    decimal.Decimal
	Quantity         int
	Subtotal         decimal.Decimal
	PurchaseSubtotal decimal.Decimal
	Profit           decimal.Decimal
	ProfitPercentage decimal.Decimal
}

// Totals aggregates priced lines.
type Totals struct {
	Total              decimal.Decimal
	TotalPurchasePrice decimal.Decimal
	TotalProfit        decimal.Decimal
}

// ValidatePercentage rejects percentages outside [0, 100].
func ValidatePercentage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return fmt.Errorf("percentage %s out of range", pct.String())
	}
	return nil
}

// Percent returns amount × pct / 100 rounded to 2 places.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(Scale)
}

// Derive computes selling price, purchase price and discount from an mrp.
func Derive(mrp, sellingPct, purchasePct decimal.Decimal) Triple {
	selling := Percent(mrp, sellingPct)
	return Triple{
		SellingPrice:  selling,
		PurchasePrice: Percent(mrp, purchasePct),
		Discount:      mrp.Round(Scale).Sub(selling),
	}
}

// PriceLine freezes the per-line amounts for qty units.
func PriceLine(selling, purchase decimal.Decimal, qty int) Line {
	q := decimal.NewFromInt(int64(qty))
	subtotal := selling.Mul(q).Round(Scale)
	purchaseSubtotal := purchase.Mul(q).Round(Scale)
	profit := subtotal.Sub(purchaseSubtotal)

	return Line{
		SellingPrice:     selling,
		PurchasePrice:    purchase,
		Quantity:         qty,
		Subtotal:         subtotal,
		PurchaseSubtotal: purchaseSubtotal,
		Profit:           profit,
		ProfitPercentage: ProfitPercentage(profit, subtotal),
	}
}

// ProfitPercentage is profit relative to revenue; zero when subtotal is zero.
func ProfitPercentage(profit, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() {
		return decimal.Zero
	}
	return profit.Div(subtotal).Mul(hundred).Round(Scale)
}

// Sum adds up line amounts.
func Sum(lines []Line) Totals {
	totals := Totals{
		Total:              decimal.Zero,
		TotalPurchasePrice: decimal.Zero,
		TotalProfit:        decimal.Zero,
	}
	for _, l := range lines {
		totals.Total = totals.Total.Add(l.Subtotal)
		totals.TotalPurchasePrice = totals.TotalPurchasePrice.Add(l.PurchaseSubtotal)
		totals.TotalProfit = totals.TotalProfit.Add(l.Profit)
	}
	return totals
}
