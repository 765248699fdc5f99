package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	"github.com/angelmondragon/fulfillment-router/pkg/types"
)

// Order is the routed customer order. Rows are never deleted.
type Order struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID         uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	Status             enums.OrderStatus     `gorm:"column:status;type:text;not null;index"`
	AssignedVendorID   *uuid.UUID            `gorm:"column:assigned_vendor_id;type:uuid;index"`
	IsPrimeClass       bool                  `gorm:"column:is_prime_class;not null"`
	DeliveryAddress    types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;not null"`
	Pincode            string                `gorm:"column:pincode;not null"`
	Total              decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	TotalPurchasePrice decimal.Decimal       `gorm:"column:total_purchase_price;type:numeric(12,2);not null"`
	TotalProfit        decimal.Decimal       `gorm:"column:total_profit;type:numeric(12,2);not null"`
	ClaimedAt          *time.Time            `gorm:"column:claimed_at"`
	Items              []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is a frozen pricing snapshot of one order line.
type OrderItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	Position         int             `gorm:"column:position;not null"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID        *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	VendorID         *uuid.UUID      `gorm:"column:vendor_id;type:uuid"`
	Quantity         int             `gorm:"column:quantity;not null"`
	SellingPrice     decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null"`
	PurchasePrice    decimal.Decimal `gorm:"column:purchase_price;type:numeric(12,2);not null"`
	Subtotal         decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	PurchaseSubtotal decimal.Decimal `gorm:"column:purchase_subtotal;type:numeric(12,2);not null"`
	Profit           decimal.Decimal `gorm:"column:profit;type:numeric(12,2);not null"`
	ProfitPercentage decimal.Decimal `gorm:"column:profit_percentage;type:numeric(7,2);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
