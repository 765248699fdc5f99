package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/fulfillment-router/pkg/db/types"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
)

// Vendor is a fulfilling party. BrandIDs only restricts prime vendors.
type Vendor struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name       string            `gorm:"column:name;not null"`
	Class      enums.VendorClass `gorm:"column:class;type:text;not null"`
	IsApproved bool              `gorm:"column:is_approved;not null"`
	BrandIDs   dbtypes.UUIDArray `gorm:"column:brand_ids;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Vendor) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	if v.BrandIDs == nil {
		v.BrandIDs = dbtypes.UUIDArray{}
	}
	return nil
}
