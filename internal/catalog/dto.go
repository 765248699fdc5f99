package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
)

// UpdatePricingInput carries optional pricing changes for a product and its variants.
type UpdatePricingInput struct {
	MRP                *decimal.Decimal
	SellingPercentage  *decimal.Decimal
	PurchasePercentage *decimal.Decimal
	Variants           []VariantPricingInput
}

// VariantPricingInput updates one existing variant.
type VariantPricingInput struct {
	VariantID          uuid.UUID
	MRP                *decimal.Decimal
	SellingPercentage  *decimal.Decimal
	PurchasePercentage *decimal.Decimal
	IsActive           *bool
}

// ProductDTO is the admin view of a product's pricing.
type ProductDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	BrandID            uuid.UUID       `json:"brand_id"`
	IsPrimeClass       bool            `json:"is_prime_class"`
	IsActive           bool            `json:"is_active"`
	HasVariants        bool            `json:"has_variants"`
	MRP                decimal.Decimal `json:"mrp"`
	SellingPercentage  decimal.Decimal `json:"selling_percentage"`
	PurchasePercentage decimal.Decimal `json:"purchase_percentage"`
	SellingPrice       decimal.Decimal `json:"selling_price"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
	Discount           decimal.Decimal `json:"discount"`
	Variants           []VariantDTO    `json:"variants,omitempty"`
}

type VariantDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Label              string          `json:"label"`
	IsActive           bool            `json:"is_active"`
	MRP                decimal.Decimal `json:"mrp"`
	SellingPercentage  decimal.Decimal `json:"selling_percentage"`
	PurchasePercentage decimal.Decimal `json:"purchase_percentage"`
	SellingPrice       decimal.Decimal `json:"selling_price"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
}

func mapProductDTO(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:                 p.ID,
		Name:               p.Name,
		BrandID:            p.BrandID,
		IsPrimeClass:       p.IsPrimeClass,
		IsActive:           p.IsActive,
		HasVariants:        p.HasVariants,
		MRP:                p.MRP,
		SellingPercentage:  p.SellingPercentage,
		PurchasePercentage: p.PurchasePercentage,
		SellingPrice:       p.SellingPrice,
		PurchasePrice:      p.PurchasePrice,
		Discount:           p.Discount,
	}
	for _, v := range p.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:                 v.ID,
			Label:              v.Label,
			IsActive:           v.IsActive,
			MRP:                v.MRP,
			SellingPercentage:  v.SellingPercentage,
			PurchasePercentage: v.PurchasePercentage,
			SellingPrice:       v.SellingPrice,
			PurchasePrice:      v.PurchasePrice,
		})
	}
	return dto
}
