// Package pricing is the per-vendor pricing store: purchase terms, stock and
// activation for each (vendor, product) pair.
package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/internal/vendors"
	"github.com/angelmondragon/fulfillment-router/pkg/db"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	pricemath "github.com/angelmondragon/fulfillment-router/pkg/pricing"
)

const upsertAttempts = 3

// Service exposes vendor pricing lookups and mutations.
type Service interface {
	PurchasePrice(ctx context.Context, vendorID, productID uuid.UUID, variantID *uuid.UUID) (Quote, error)
	EntriesFor(ctx context.Context, vendorID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]models.VendorPricingEntry, error)
	Derive(mrp, sellingPct, purchasePct decimal.Decimal) pricemath.Triple
	UpsertEntry(ctx context.Context, vendorID, productID uuid.UUID, input UpsertEntryInput) (*EntryDTO, error)
	EnsureEntry(ctx context.Context, vendor *models.Vendor, product *models.Product) (*models.VendorPricingEntry, error)
	ViewEntry(ctx context.Context, vendorID, productID uuid.UUID) (*EntryDTO, error)
	RepriceProduct(ctx context.Context, productID uuid.UUID) error
	RepriceWithTx(ctx context.Context, tx *gorm.DB, product *models.Product) error
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type vendorGetter interface {
	GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	products productFinder
	vendors  vendorGetter
	tx       txRunner
}

// NewService constructs the pricing store service.
func NewService(repo *Repository, products productFinder, vendors vendorGetter, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor directory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, products: products, vendors: vendors, tx: tx}, nil
}

// PurchasePrice reports the vendor's purchase price for a product or variant.
// A missing entry is not an error; Found is false.
func (s *service) PurchasePrice(ctx context.Context, vendorID, productID uuid.UUID, variantID *uuid.UUID) (Quote, error) {
	entry, err := s.repo.FindEntry(ctx, vendorID, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return Quote{}, nil
		}
		return Quote{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing entry")
	}

	var product models.Product
	if variantID != nil && len(entry.Variants) == 0 {
		p, err := s.loadProduct(ctx, productID)
		if err != nil {
			return Quote{}, err
		}
		product = *p
	}

	terms, ok := ResolveTerms(*entry, product, variantID)
	if !ok {
		return Quote{}, nil
	}
	return Quote{Price: terms.PurchasePrice, Active: terms.Active, Found: true}, nil
}

// EntriesFor returns the vendor's entries keyed by product id.
func (s *service) EntriesFor(ctx context.Context, vendorID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]models.VendorPricingEntry, error) {
	rows, err := s.repo.ListForVendor(ctx, vendorID, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing entries")
	}
	out := make(map[uuid.UUID]models.VendorPricingEntry, len(rows))
	for _, e := range rows {
		out[e.ProductID] = e
	}
	return out, nil
}

func (s *service) Derive(mrp, sellingPct, purchasePct decimal.Decimal) pricemath.Triple {
	return pricemath.Derive(mrp, sellingPct, purchasePct)
}

// UpsertEntry applies the vendor's changes to its entry for the product,
// creating the entry on first write. Concurrent writers are reconciled by
// re-reading after a unique violation or a version conflict.
func (s *service) UpsertEntry(ctx context.Context, vendorID, productID uuid.UUID, input UpsertEntryInput) (*EntryDTO, error) {
	vendor, product, err := s.loadPair(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}
	if err := validateUpsert(product, input); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		existing, err := s.repo.FindEntry(ctx, vendorID, productID)
		switch {
		case err == nil:
			applyUpsert(existing, product, input)
			ok, err := s.repo.UpdateWithVersion(ctx, existing)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pricing entry")
			}
			if ok {
				dto := mapEntryDTO(*existing)
				return &dto, nil
			}
		case db.IsNotFound(err):
			entry := seedEntry(vendor, product)
			applyUpsert(&entry, product, input)
			if err := s.repo.Create(ctx, &entry); err != nil {
				if db.IsUniqueViolation(err, EntryConstraint) {
					continue
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pricing entry")
			}
			dto := mapEntryDTO(entry)
			return &dto, nil
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing entry")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "pricing entry changed concurrently, retry")
}

// EnsureEntry returns the vendor's entry for the product, creating it from the
// product's own terms when absent. New entries start with zero stock and are
// active only for the shop fulfiller.
func (s *service) EnsureEntry(ctx context.Context, vendor *models.Vendor, product *models.Product) (*models.VendorPricingEntry, error) {
	existing, err := s.repo.FindEntry(ctx, vendor.ID, product.ID)
	if err == nil {
		return existing, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing entry")
	}

	entry := seedEntry(vendor, product)
	if err := s.repo.Create(ctx, &entry); err != nil {
		if !db.IsUniqueViolation(err, EntryConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pricing entry")
		}
		existing, err = s.repo.FindEntry(ctx, vendor.ID, product.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload pricing entry")
		}
		return existing, nil
	}
	return &entry, nil
}

// ViewEntry is a vendor opening a product's pricing; the entry is created on
// first view.
func (s *service) ViewEntry(ctx context.Context, vendorID, productID uuid.UUID) (*EntryDTO, error) {
	vendor, product, err := s.loadPair(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}
	entry, err := s.EnsureEntry(ctx, vendor, product)
	if err != nil {
		return nil, err
	}
	dto := mapEntryDTO(*entry)
	return &dto, nil
}

// RepriceProduct recomputes every vendor's purchase price for the product
// from its current mrp.
func (s *service) RepriceProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.RepriceWithTx(ctx, tx, product)
	})
}

func (s *service) RepriceWithTx(ctx context.Context, tx *gorm.DB, product *models.Product) error {
	repo := s.repo.WithTx(tx)
	entries, err := repo.ListByProduct(ctx, product.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pricing entries")
	}
	for i := range entries {
		entry := &entries[i]
		reprice(entry, product)
		ok, err := repo.UpdateWithVersion(ctx, entry)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reprice pricing entry")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "pricing entry changed during reprice").
				WithDetails(map[string]any{"vendor_id": entry.VendorID})
		}
	}
	return nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) loadPair(ctx context.Context, vendorID, productID uuid.UUID) (*models.Vendor, *models.Product, error) {
	vendor, err := s.vendors.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, nil, err
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if !vendors.Authorized(vendor, product.IsPrimeClass, []uuid.UUID{product.BrandID}) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeVendorNotEligible, "vendor cannot price this product").
			WithDetails(map[string]any{"product_id": product.ID})
	}
	return vendor, product, nil
}

func seedEntry(vendor *models.Vendor, product *models.Product) models.VendorPricingEntry {
	active := vendor.Class == enums.VendorClassShop
	entry := models.VendorPricingEntry{
		VendorID:           vendor.ID,
		ProductID:          product.ID,
		PurchasePercentage: product.PurchasePercentage,
		PurchasePrice:      pricemath.Percent(product.MRP, product.PurchasePercentage),
		IsActive:           active,
	}
	for _, v := range product.Variants {
		entry.Variants = append(entry.Variants, seedVariant(v, active))
	}
	return entry
}

func seedVariant(v models.ProductVariant, active bool) models.VariantPricing {
	return models.VariantPricing{
		VariantID:          v.ID,
		PurchasePercentage: v.PurchasePercentage,
		PurchasePrice:      pricemath.Percent(v.MRP, v.PurchasePercentage),
		IsActive:           active && v.IsActive,
	}
}

func validateUpsert(product *models.Product, input UpsertEntryInput) error {
	if input.PurchasePercentage != nil {
		if err := pricemath.ValidatePercentage(*input.PurchasePercentage); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase_percentage")
		}
	}
	if input.AvailableStock != nil && *input.AvailableStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "available_stock must not be negative")
	}
	for _, v := range input.Variants {
		if _, ok := product.Variant(v.VariantID); !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product").
				WithDetails(map[string]any{"variant_id": v.VariantID})
		}
		if v.PurchasePercentage != nil {
			if err := pricemath.ValidatePercentage(*v.PurchasePercentage); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant purchase_percentage")
			}
		}
		if v.AvailableStock != nil && *v.AvailableStock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant available_stock must not be negative")
		}
	}
	return nil
}

func applyUpsert(entry *models.VendorPricingEntry, product *models.Product, input UpsertEntryInput) {
	if input.PurchasePercentage != nil {
		entry.PurchasePercentage = *input.PurchasePercentage
	}
	if input.AvailableStock != nil {
		entry.AvailableStock = *input.AvailableStock
	}
	if input.IsActive != nil {
		entry.IsActive = *input.IsActive
	}
	entry.PurchasePrice = pricemath.Percent(product.MRP, entry.PurchasePercentage)

	for _, in := range input.Variants {
		variant, _ := product.Variant(in.VariantID)
		idx := -1
		for i := range entry.Variants {
			if entry.Variants[i].VariantID == in.VariantID {
				idx = i
				break
			}
		}
		if idx < 0 {
			entry.Variants = append(entry.Variants, seedVariant(variant, entry.IsActive))
			idx = len(entry.Variants) - 1
		}
		row := &entry.Variants[idx]
		if in.PurchasePercentage != nil {
			row.PurchasePercentage = *in.PurchasePercentage
		}
		if in.AvailableStock != nil {
			row.AvailableStock = *in.AvailableStock
		}
		if in.IsActive != nil {
			row.IsActive = *in.IsActive
		}
		row.PurchasePrice = pricemath.Percent(variant.MRP, row.PurchasePercentage)
	}
}

func reprice(entry *models.VendorPricingEntry, product *models.Product) {
	entry.PurchasePrice = pricemath.Percent(product.MRP, entry.PurchasePercentage)
	for i := range entry.Variants {
		row := &entry.Variants[i]
		if variant, ok := product.Variant(row.VariantID); ok {
			row.PurchasePrice = pricemath.Percent(variant.MRP, row.PurchasePercentage)
		}
	}
}
