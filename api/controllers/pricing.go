package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-router/api/controllers/vendorcontext"
	"github.com/angelmondragon/fulfillment-router/api/responses"
	"github.com/angelmondragon/fulfillment-router/api/validators"
	"github.com/angelmondragon/fulfillment-router/internal/pricing"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/logger"
)

type upsertEntryRequest struct {
	PurchasePercentage *decimal.Decimal      `json:"purchase_percentage,omitempty"`
	AvailableStock     *int                  `json:"available_stock,omitempty" validate:"omitempty,gte=0"`
	IsActive           *bool                 `json:"is_active,omitempty"`
	Variants           []variantEntryRequest `json:"variants,omitempty" validate:"omitempty,dive"`
}

type variantEntryRequest struct {
	VariantID          uuid.UUID        `json:"variant_id" validate:"required"`
	PurchasePercentage *decimal.Decimal `json:"purchase_percentage,omitempty"`
	AvailableStock     *int             `json:"available_stock,omitempty" validate:"omitempty,gte=0"`
	IsActive           *bool            `json:"is_active,omitempty"`
}

func (r upsertEntryRequest) toInput() pricing.UpsertEntryInput {
	input := pricing.UpsertEntryInput{
		PurchasePercentage: r.PurchasePercentage,
		AvailableStock:     r.AvailableStock,
		IsActive:           r.IsActive,
	}
	for _, v := range r.Variants {
		input.Variants = append(input.Variants, pricing.VariantEntryInput{
			VariantID:          v.VariantID,
			PurchasePercentage: v.PurchasePercentage,
			AvailableStock:     v.AvailableStock,
			IsActive:           v.IsActive,
		})
	}
	return input
}

// VendorPricingView returns the vendor's terms for a product, creating them from
// the catalog defaults on first view.
func VendorPricingView(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		vendorID, err := vendorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.ViewEntry(r.Context(), vendorID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// VendorPricingUpsert sets the vendor's purchase percentage, stock or activation.
func VendorPricingUpsert(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		vendorID, err := vendorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req upsertEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.UpsertEntry(r.Context(), vendorID, productID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}
