package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. It is priced either from its own
// mrp/percentages or, when HasVariants is set, only from its variants.
type Product struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name               string           `gorm:"column:name;not null"`
	BrandID            uuid.UUID        `gorm:"column:brand_id;type:uuid;not null"`
	IsPrimeClass       bool             `gorm:"column:is_prime_class;not null"`
	IsActive           bool             `gorm:"column:is_active;not null"`
	HasVariants        bool             `gorm:"column:has_variants;not null"`
	MRP                decimal.Decimal  `gorm:"column:mrp;type:numeric(12,2);not null"`
	SellingPercentage  decimal.Decimal  `gorm:"column:selling_percentage;type:numeric(5,2);not null"`
	PurchasePercentage decimal.Decimal  `gorm:"column:purchase_percentage;type:numeric(5,2);not null"`
	SellingPrice       decimal.Decimal  `gorm:"column:selling_price;type:numeric(12,2);not null"`
	PurchasePrice      decimal.Decimal  `gorm:"column:purchase_price;type:numeric(12,2);not null"`
	Discount           decimal.Decimal  `gorm:"column:discount;type:numeric(12,2);not null"`
	Variants           []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Variant returns the variant with the given id.
func (p Product) Variant(id uuid.UUID) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// ProductVariant is a weight/size option with its own price terms.
type ProductVariant struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID          uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Label              string          `gorm:"column:label;not null"`
	IsActive           bool            `gorm:"column:is_active;not null"`
	MRP                decimal.Decimal `gorm:"column:mrp;type:numeric(12,2);not null"`
	SellingPercentage  decimal.Decimal `gorm:"column:selling_percentage;type:numeric(5,2);not null"`
	PurchasePercentage decimal.Decimal `gorm:"column:purchase_percentage;type:numeric(5,2);not null"`
	SellingPrice       decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null"`
	PurchasePrice      decimal.Decimal `gorm:"column:purchase_price;type:numeric(12,2);not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
