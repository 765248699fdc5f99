package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	"github.com/angelmondragon/fulfillment-router/pkg/types"
)

// CreateOrderInput is a customer's order request.
type CreateOrderInput struct {
	CustomerID uuid.UUID
	Lines      []LineInput
	Address    types.DeliveryAddress
}

// LineInput is one requested product (or variant) and quantity.
type LineInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// Actor identifies who is reading an order.
type Actor struct {
	UserID   uuid.UUID
	Role     enums.Role
	VendorID *uuid.UUID
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID                 uuid.UUID             `json:"id"`
	CustomerID         uuid.UUID             `json:"customer_id"`
	Status             enums.OrderStatus     `json:"status"`
	AssignedVendorID   *uuid.UUID            `json:"assigned_vendor_id,omitempty"`
	IsPrimeClass       bool                  `json:"is_prime_class"`
	DeliveryAddress    types.DeliveryAddress `json:"delivery_address"`
	Pincode            string                `json:"pincode"`
	Total              decimal.Decimal       `json:"total"`
	TotalPurchasePrice decimal.Decimal       `json:"total_purchase_price"`
	TotalProfit        decimal.Decimal       `json:"total_profit"`
	ClaimedAt          *time.Time            `json:"claimed_at,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	Items              []OrderItemDTO        `json:"items"`
}

type OrderItemDTO struct {
	ID               uuid.UUID       `json:"id"`
	Position         int             `json:"position"`
	ProductID        uuid.UUID       `json:"product_id"`
	VariantID        *uuid.UUID      `json:"variant_id,omitempty"`
	VendorID         *uuid.UUID      `json:"vendor_id,omitempty"`
	Quantity         int             `json:"quantity"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	PurchaseSubtotal decimal.Decimal `json:"purchase_subtotal"`
	Profit           decimal.Decimal `json:"profit"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
}

// ClaimableOrderDTO is an open order as one vendor would price it.
type ClaimableOrderDTO struct {
	OrderDTO
	ProspectiveEarnings decimal.Decimal `json:"prospective_earnings"`
}

// VendorOrderList is a page of a vendor's assigned orders.
type VendorOrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func mapOrderDTO(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                 o.ID,
		CustomerID:         o.CustomerID,
		Status:             o.Status,
		AssignedVendorID:   o.AssignedVendorID,
		IsPrimeClass:       o.IsPrimeClass,
		DeliveryAddress:    o.DeliveryAddress,
		Pincode:            o.Pincode,
		Total:              o.Total,
		TotalPurchasePrice: o.TotalPurchasePrice,
		TotalProfit:        o.TotalProfit,
		ClaimedAt:          o.ClaimedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Items:              make([]OrderItemDTO, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:               item.ID,
			Position:         item.Position,
			ProductID:        item.ProductID,
			VariantID:        item.VariantID,
			VendorID:         item.VendorID,
			Quantity:         item.Quantity,
			SellingPrice:     item.SellingPrice,
			PurchasePrice:    item.PurchasePrice,
			Subtotal:         item.Subtotal,
			PurchaseSubtotal: item.PurchaseSubtotal,
			Profit:           item.Profit,
			ProfitPercentage: item.ProfitPercentage,
		})
	}
	return dto
}
