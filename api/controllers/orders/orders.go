package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-router/api/controllers/vendorcontext"
	"github.com/angelmondragon/fulfillment-router/api/middleware"
	"github.com/angelmondragon/fulfillment-router/api/responses"
	"github.com/angelmondragon/fulfillment-router/api/validators"
	internalorders "github.com/angelmondragon/fulfillment-router/internal/orders"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/logger"
	"github.com/angelmondragon/fulfillment-router/pkg/pagination"
	"github.com/angelmondragon/fulfillment-router/pkg/types"
)

const (
	maxAddressLineLength = 200
	maxAddressPartLength = 100
	maxPincodeLength     = 12
)

type createOrderRequest struct {
	Lines   []lineRequest  `json:"lines" validate:"required,min=1,dive"`
	Address addressRequest `json:"address"`
}

type lineRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"gt=0"`
}

type addressRequest struct {
	Line1   string  `json:"line1" validate:"required"`
	Line2   *string `json:"line2,omitempty"`
	City    string  `json:"city" validate:"required"`
	State   string  `json:"state"`
	Pincode string  `json:"pincode" validate:"required"`
	Country string  `json:"country"`
}

func (a addressRequest) toDeliveryAddress() types.DeliveryAddress {
	out := types.DeliveryAddress{
		Line1:   validators.SanitizeString(a.Line1, maxAddressLineLength),
		City:    validators.SanitizeString(a.City, maxAddressPartLength),
		State:   validators.SanitizeString(a.State, maxAddressPartLength),
		Pincode: validators.SanitizeString(a.Pincode, maxPincodeLength),
		Country: validators.SanitizeString(a.Country, maxAddressPartLength),
	}
	if a.Line2 != nil {
		line2 := validators.SanitizeString(*a.Line2, maxAddressLineLength)
		out.Line2 = &line2
	}
	return out
}

type advanceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create places a customer order and routes it.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := validators.ParseUUIDValue(middleware.UserIDFromContext(r.Context()), "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			CustomerID: customerID,
			Lines:      make([]internalorders.LineInput, 0, len(req.Lines)),
			Address:    req.Address.toDeliveryAddress(),
		}
		for _, line := range req.Lines {
			input.Lines = append(input.Lines, internalorders.LineInput{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
			})
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns an order to its customer, its assigned vendor or an admin.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Cancel withdraws a pending order on behalf of its customer.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := validators.ParseUUIDValue(middleware.UserIDFromContext(r.Context()), "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelOrder(r.Context(), orderID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Claimable lists open orders the calling vendor could claim right now.
func Claimable(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, err := vendorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListClaimableOrders(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if orders == nil {
			orders = []internalorders.ClaimableOrderDTO{}
		}
		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}

// Claim assigns a pending order to the calling vendor.
func Claim(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, err := vendorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ClaimOrder(r.Context(), orderID, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// VendorList pages through the orders assigned to the calling vendor.
func VendorList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, err := vendorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildVendorFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListVendorOrders(r.Context(), vendorID, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdvanceStatus moves an assigned order one step along its fulfillment path.
func AdvanceStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, err := vendorcontext.ResolveVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req advanceStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(strings.TrimSpace(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.AdvanceStatus(r.Context(), orderID, vendorID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	ctx := r.Context()
	userID, err := validators.ParseUUIDValue(middleware.UserIDFromContext(ctx), "user_id")
	if err != nil {
		return internalorders.Actor{}, err
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}

	actor := internalorders.Actor{UserID: userID, Role: role}
	if raw := middleware.VendorIDFromContext(ctx); raw != "" {
		vendorID, err := uuid.Parse(raw)
		if err != nil {
			return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id")
		}
		actor.VendorID = &vendorID
	}
	return actor, nil
}

func buildVendorFilters(r *http.Request) (internalorders.VendorOrderFilters, error) {
	var filters internalorders.VendorOrderFilters
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return filters, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
	}
	filters.Status = &status
	return filters, nil
}
