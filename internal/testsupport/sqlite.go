// Package testsupport builds sqlite-backed fixtures for repository and
// service tests.
package testsupport

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	"github.com/angelmondragon/fulfillment-router/pkg/logger"
	"github.com/angelmondragon/fulfillment-router/pkg/pricing"
)

// NewDB opens an isolated in-memory sqlite database with every model migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Logger returns a logger that discards output.
func Logger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ProductSpec describes a product fixture; zero values get sensible defaults.
type ProductSpec struct {
	Name               string
	BrandID            uuid.UUID
	Prime              bool
	Inactive           bool
	MRP                string
	SellingPercentage  string
	PurchasePercentage string
	Variants           []VariantSpec
}

type VariantSpec struct {
	Label              string
	Inactive           bool
	MRP                string
	SellingPercentage  string
	PurchasePercentage string
}

// NewProduct builds a product with derived prices filled in, without saving it.
func NewProduct(spec ProductSpec) models.Product {
	if spec.BrandID == uuid.Nil {
		spec.BrandID = uuid.New()
	}
	if spec.Name == "" {
		spec.Name = "product"
	}
	mrp, sell, buy := orDefault(spec.MRP, "200"), orDefault(spec.SellingPercentage, "80"), orDefault(spec.PurchasePercentage, "60")
	triple := pricing.Derive(Dec(mrp), Dec(sell), Dec(buy))

	p := models.Product{
		ID:                 uuid.New(),
		Name:               spec.Name,
		BrandID:            spec.BrandID,
		IsPrimeClass:       spec.Prime,
		IsActive:           !spec.Inactive,
		HasVariants:        len(spec.Variants) > 0,
		MRP:                Dec(mrp),
		SellingPercentage:  Dec(sell),
		PurchasePercentage: Dec(buy),
		SellingPrice:       triple.SellingPrice,
		PurchasePrice:      triple.PurchasePrice,
		Discount:           triple.Discount,
	}
	for _, vs := range spec.Variants {
		vm, vsell, vbuy := orDefault(vs.MRP, "100"), orDefault(vs.SellingPercentage, "90"), orDefault(vs.PurchasePercentage, "70")
		vt := pricing.Derive(Dec(vm), Dec(vsell), Dec(vbuy))
		p.Variants = append(p.Variants, models.ProductVariant{
			ID:                 uuid.New(),
			ProductID:          p.ID,
			Label:              vs.Label,
			IsActive:           !vs.Inactive,
			MRP:                Dec(vm),
			SellingPercentage:  Dec(vsell),
			PurchasePercentage: Dec(vbuy),
			SellingPrice:       vt.SellingPrice,
			PurchasePrice:      vt.PurchasePrice,
		})
	}
	return p
}

// SeedProduct saves a product fixture and its variants.
func SeedProduct(t *testing.T, db *gorm.DB, spec ProductSpec) models.Product {
	t.Helper()
	p := NewProduct(spec)
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// SeedVendor saves an approved vendor of the given class.
func SeedVendor(t *testing.T, db *gorm.DB, class enums.VendorClass, brands ...uuid.UUID) models.Vendor {
	t.Helper()
	v := models.Vendor{
		ID:         uuid.New(),
		Name:       string(class) + " vendor",
		Class:      class,
		IsApproved: true,
		BrandIDs:   brands,
	}
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	return v
}

// SeedEntry saves an active pricing entry for vendor and product.
func SeedEntry(t *testing.T, db *gorm.DB, vendorID uuid.UUID, product models.Product, purchasePct string, stock int) models.VendorPricingEntry {
	t.Helper()
	e := models.VendorPricingEntry{
		ID:                 uuid.New(),
		VendorID:           vendorID,
		ProductID:          product.ID,
		PurchasePercentage: Dec(purchasePct),
		PurchasePrice:      pricing.Percent(product.MRP, Dec(purchasePct)),
		AvailableStock:     stock,
		IsActive:           true,
	}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return e
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
