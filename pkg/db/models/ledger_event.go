package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/pkg/enums"
)

// LedgerEvent records an immutable sale fact for a claimed order line.
type LedgerEvent struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	VendorID  uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null;index"`
	ProductID uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	VariantID *uuid.UUID            `gorm:"column:variant_id;type:uuid"`
	Type      enums.LedgerEventType `gorm:"column:type;type:text;not null"`
	Quantity  int                   `gorm:"column:quantity;not null"`
	Amount    decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Metadata  json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (e *LedgerEvent) BeforeCreate(*gorm.DB) error {
	if !e.Type.IsValid() {
		return fmt.Errorf("unknown ledger event type %q", e.Type)
	}
	ensureID(&e.ID)
	return nil
}
