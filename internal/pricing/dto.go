package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
)

// UpsertEntryInput carries optional changes to a vendor's pricing entry.
type UpsertEntryInput struct {
	PurchasePercentage *decimal.Decimal
	AvailableStock     *int
	IsActive           *bool
	Variants           []VariantEntryInput
}

type VariantEntryInput struct {
	VariantID          uuid.UUID
	PurchasePercentage *decimal.Decimal
	AvailableStock     *int
	IsActive           *bool
}

// Quote is the answer to a purchase price lookup.
type Quote struct {
	Price  decimal.Decimal `json:"price"`
	Active bool            `json:"active"`
	Found  bool            `json:"found"`
}

// EntryDTO is the vendor-facing view of a pricing entry.
type EntryDTO struct {
	VendorID           uuid.UUID         `json:"vendor_id"`
	ProductID          uuid.UUID         `json:"product_id"`
	PurchasePercentage decimal.Decimal   `json:"purchase_percentage"`
	PurchasePrice      decimal.Decimal   `json:"purchase_price"`
	AvailableStock     int               `json:"available_stock"`
	IsActive           bool              `json:"is_active"`
	Variants           []VariantEntryDTO `json:"variants,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

type VariantEntryDTO struct {
	VariantID          uuid.UUID       `json:"variant_id"`
	PurchasePercentage decimal.Decimal `json:"purchase_percentage"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
	AvailableStock     int             `json:"available_stock"`
	IsActive           bool            `json:"is_active"`
}

func mapEntryDTO(e models.VendorPricingEntry) EntryDTO {
	dto := EntryDTO{
		VendorID:           e.VendorID,
		ProductID:          e.ProductID,
		PurchasePercentage: e.PurchasePercentage,
		PurchasePrice:      e.PurchasePrice,
		AvailableStock:     e.AvailableStock,
		IsActive:           e.IsActive,
		UpdatedAt:          e.UpdatedAt,
	}
	for _, v := range e.Variants {
		dto.Variants = append(dto.Variants, VariantEntryDTO(v))
	}
	return dto
}
