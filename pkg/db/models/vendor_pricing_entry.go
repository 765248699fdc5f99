package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VendorPricingEntry is a vendor's cost terms and stock for one product.
type VendorPricingEntry struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	VendorID           uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:vendor_pricing_vendor_product_key"`
	ProductID          uuid.UUID        `gorm:"column:product_id;type:uuid;not null;uniqueIndex:vendor_pricing_vendor_product_key;index"`
	PurchasePercentage decimal.Decimal  `gorm:"column:purchase_percentage;type:numeric(5,2);not null"`
	PurchasePrice      decimal.Decimal  `gorm:"column:purchase_price;type:numeric(12,2);not null"`
	AvailableStock     int              `gorm:"column:available_stock;not null"`
	IsActive           bool             `gorm:"column:is_active;not null"`
	Variants           []VariantPricing `gorm:"column:variants;type:jsonb;serializer:json"`
	Version            int              `gorm:"column:version;not null"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *VendorPricingEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// Variant returns the vendor's row for a product variant.
func (e VendorPricingEntry) Variant(id uuid.UUID) (VariantPricing, bool) {
	for _, v := range e.Variants {
		if v.VariantID == id {
			return v, true
		}
	}
	return VariantPricing{}, false
}

// VariantPricing mirrors one product variant inside a vendor entry.
type VariantPricing struct {
	VariantID          uuid.UUID       `json:"variant_id"`
	PurchasePercentage decimal.Decimal `json:"purchase_percentage"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
	AvailableStock     int             `json:"available_stock"`
	IsActive           bool            `json:"is_active"`
}
