package pricing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/internal/repo"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
)

// EntryConstraint is the unique (vendor_id, product_id) constraint name.
const EntryConstraint = "vendor_pricing_vendor_product_key"

const stockRetries = 3

var (
	// ErrInsufficientStock is returned when a decrement would drop stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrVersionConflict means another writer updated the entry first.
	ErrVersionConflict = errors.New("pricing entry version conflict")
)

// Repository persists vendor pricing entries.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.Bind(tx)}
}

// FindEntry loads the entry for a vendor/product pair.
func (r *Repository) FindEntry(ctx context.Context, vendorID, productID uuid.UUID) (*models.VendorPricingEntry, error) {
	var entry models.VendorPricingEntry
	if err := r.DB(ctx).
		Where("vendor_id = ? AND product_id = ?", vendorID, productID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListForVendor returns the vendor's entries for the given products.
func (r *Repository) ListForVendor(ctx context.Context, vendorID uuid.UUID, productIDs []uuid.UUID) ([]models.VendorPricingEntry, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var entries []models.VendorPricingEntry
	if err := r.DB(ctx).
		Where("vendor_id = ? AND product_id IN ?", vendorID, productIDs).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByProduct returns every vendor's entry for a product.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.VendorPricingEntry, error) {
	var entries []models.VendorPricingEntry
	if err := r.DB(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Create inserts a new entry. A concurrent insert for the same pair surfaces
// as a unique violation on EntryConstraint.
func (r *Repository) Create(ctx context.Context, entry *models.VendorPricingEntry) error {
	return r.DB(ctx).Create(entry).Error
}

// UpdateWithVersion writes entry if its stored version still equals
// entry.Version, bumping the version. It reports whether the row was updated.
func (r *Repository) UpdateWithVersion(ctx context.Context, entry *models.VendorPricingEntry) (bool, error) {
	variants, err := encodeVariants(entry.Variants)
	if err != nil {
		return false, err
	}
	res := r.DB(ctx).
		Model(&models.VendorPricingEntry{}).
		Where("id = ? AND version = ?", entry.ID, entry.Version).
		Updates(map[string]any{
			"purchase_percentage": entry.PurchasePercentage,
			"purchase_price":      entry.PurchasePrice,
			"available_stock":     entry.AvailableStock,
			"is_active":           entry.IsActive,
			"variants":            variants,
			"version":             entry.Version + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	entry.Version++
	return true, nil
}

// DecrementStock removes qty units from the vendor's stock. Variant rows are
// updated with an optimistic version check; entries without a variant list
// use a guarded arithmetic update.
func (r *Repository) DecrementStock(ctx context.Context, vendorID, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if variantID == nil {
		return r.decrementEntryStock(ctx, vendorID, productID, qty)
	}

	for attempt := 0; attempt < stockRetries; attempt++ {
		entry, err := r.FindEntry(ctx, vendorID, productID)
		if err != nil {
			return err
		}
		if len(entry.Variants) == 0 {
			return r.decrementEntryStock(ctx, vendorID, productID, qty)
		}

		idx := -1
		for i := range entry.Variants {
			if entry.Variants[i].VariantID == *variantID {
				idx = i
				break
			}
		}
		if idx < 0 || entry.Variants[idx].AvailableStock < qty {
			return ErrInsufficientStock
		}
		entry.Variants[idx].AvailableStock -= qty

		ok, err := r.UpdateWithVersion(ctx, entry)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrVersionConflict
}

// DrainStock takes whatever stock is left for the line, down to zero, and
// reports how many units it took. A missing entry or variant row yields zero.
func (r *Repository) DrainStock(ctx context.Context, vendorID, productID uuid.UUID, variantID *uuid.UUID) (int, error) {
	for attempt := 0; attempt < stockRetries; attempt++ {
		entry, err := r.FindEntry(ctx, vendorID, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}

		taken := 0
		if variantID != nil && len(entry.Variants) > 0 {
			for i := range entry.Variants {
				if entry.Variants[i].VariantID == *variantID {
					taken = entry.Variants[i].AvailableStock
					entry.Variants[i].AvailableStock = 0
					break
				}
			}
		} else {
			taken = entry.AvailableStock
			entry.AvailableStock = 0
		}
		if taken <= 0 {
			return 0, nil
		}

		ok, err := r.UpdateWithVersion(ctx, entry)
		if err != nil {
			return 0, err
		}
		if ok {
			return taken, nil
		}
	}
	return 0, ErrVersionConflict
}

func (r *Repository) decrementEntryStock(ctx context.Context, vendorID, productID uuid.UUID, qty int) error {
	res := r.DB(ctx).
		Model(&models.VendorPricingEntry{}).
		Where("vendor_id = ? AND product_id = ? AND available_stock >= ?", vendorID, productID, qty).
		Updates(map[string]any{
			"available_stock": gorm.Expr("available_stock - ?", qty),
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func encodeVariants(rows []models.VariantPricing) (any, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
