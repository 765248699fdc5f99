package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/internal/repo"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
)

// Repository persists products and their variants.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.Bind(tx)}
}

// FindByID loads a product with its variants.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every listed product that exists, with variants.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.DB(ctx).
		Preload("Variants").
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SavePricing writes the pricing columns of the product and each variant.
func (r *Repository) SavePricing(ctx context.Context, product *models.Product) error {
	db := r.DB(ctx)
	if err := db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"mrp":                 product.MRP,
			"selling_percentage":  product.SellingPercentage,
			"purchase_percentage": product.PurchasePercentage,
			"selling_price":       product.SellingPrice,
			"purchase_price":      product.PurchasePrice,
			"discount":            product.Discount,
		}).Error; err != nil {
		return err
	}
	for _, v := range product.Variants {
		if err := db.Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ?", v.ID, product.ID).
			Updates(map[string]any{
				"mrp":                 v.MRP,
				"selling_percentage":  v.SellingPercentage,
				"purchase_percentage": v.PurchasePercentage,
				"selling_price":       v.SellingPrice,
				"purchase_price":      v.PurchasePrice,
				"is_active":           v.IsActive,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}
