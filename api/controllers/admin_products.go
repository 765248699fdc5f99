package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-router/api/responses"
	"github.com/angelmondragon/fulfillment-router/api/validators"
	"github.com/angelmondragon/fulfillment-router/internal/catalog"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/logger"
)

type updateProductPricingRequest struct {
	MRP                *decimal.Decimal        `json:"mrp,omitempty"`
	SellingPercentage  *decimal.Decimal        `json:"selling_percentage,omitempty"`
	PurchasePercentage *decimal.Decimal        `json:"purchase_percentage,omitempty"`
	Variants           []variantPricingRequest `json:"variants,omitempty" validate:"omitempty,dive"`
}

type variantPricingRequest struct {
	VariantID          uuid.UUID        `json:"variant_id" validate:"required"`
	MRP                *decimal.Decimal `json:"mrp,omitempty"`
	SellingPercentage  *decimal.Decimal `json:"selling_percentage,omitempty"`
	PurchasePercentage *decimal.Decimal `json:"purchase_percentage,omitempty"`
	IsActive           *bool            `json:"is_active,omitempty"`
}

func (r updateProductPricingRequest) toInput() catalog.UpdatePricingInput {
	input := catalog.UpdatePricingInput{
		MRP:                r.MRP,
		SellingPercentage:  r.SellingPercentage,
		PurchasePercentage: r.PurchasePercentage,
	}
	for _, v := range r.Variants {
		input.Variants = append(input.Variants, catalog.VariantPricingInput{
			VariantID:          v.VariantID,
			MRP:                v.MRP,
			SellingPercentage:  v.SellingPercentage,
			PurchasePercentage: v.PurchasePercentage,
			IsActive:           v.IsActive,
		})
	}
	return input
}

// AdminUpdateProductPricing changes catalog pricing and reprices vendor entries.
func AdminUpdateProductPricing(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductPricingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdatePricing(r.Context(), productID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
