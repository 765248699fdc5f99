package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDerive(t *testing.T) {
	got := Derive(d("200"), d("80"), d("60"))
	if !got.SellingPrice.Equal(d("160")) {
		t.Fatalf("selling price: want 160 got %s", got.SellingPrice)
	}
	if !got.PurchasePrice.Equal(d("120")) {
		t.Fatalf("purchase price: want 120 got %s", got.PurchasePrice)
	}
	if !got.Discount.Equal(d("40")) {
		t.Fatalf("discount: want 40 got %s", got.Discount)
	}
}

func TestDeriveRoundsHalfUp(t *testing.T) {
	got := Derive(d("99.99"), d("33.33"), d("12.5"))
	// 99.99 * 33.33 / 100 = 33.326667
	if !got.SellingPrice.Equal(d("33.33")) {
		t.Fatalf("selling price: want 33.33 got %s", got.SellingPrice)
	}
	// 99.99 * 12.5 / 100 = 12.49875
	if !got.PurchasePrice.Equal(d("12.50")) {
		t.Fatalf("purchase price: want 12.50 got %s", got.PurchasePrice)
	}
}

func TestPriceLine(t *testing.T) {
	line := PriceLine(d("160"), d("120"), 2)
	checks := map[string]struct{ got, want decimal.Decimal }{
		"subtotal":          {line.Subtotal, d("320")},
		"purchase subtotal": {line.PurchaseSubtotal, d("240")},
		"profit":            {line.Profit, d("80")},
		"profit percentage": {line.ProfitPercentage, d("25")},
	}
	for name, c := range checks {
		if !c.got.Equal(c.want) {
			t.Fatalf("%s: want %s got %s", name, c.want, c.got)
		}
	}
}

func TestProfitPercentageZeroSubtotal(t *testing.T) {
	if got := ProfitPercentage(d("5"), decimal.Zero); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestSum(t *testing.T) {
	totals := Sum([]Line{
		PriceLine(d("160"), d("120"), 2),
		PriceLine(d("10.50"), d("7.25"), 3),
	})
	if !totals.Total.Equal(d("351.50")) {
		t.Fatalf("total: got %s", totals.Total)
	}
	if !totals.TotalPurchasePrice.Equal(d("261.75")) {
		t.Fatalf("purchase total: got %s", totals.TotalPurchasePrice)
	}
	if !totals.TotalProfit.Equal(d("89.75")) {
		t.Fatalf("profit total: got %s", totals.TotalProfit)
	}
}

func TestValidatePercentage(t *testing.T) {
	for _, ok := range []string{"0", "55.5", "100"} {
		if err := ValidatePercentage(d(ok)); err != nil {
			t.Fatalf("expected %s to be valid: %v", ok, err)
		}
	}
	for _, bad := range []string{"-1", "100.01"} {
		if err := ValidatePercentage(d(bad)); err == nil {
			t.Fatalf("expected %s to be rejected", bad)
		}
	}
}
