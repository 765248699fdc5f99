package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/pkg/db"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/pricing"
)

// Service exposes catalog reads and admin pricing updates.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	UpdatePricing(ctx context.Context, productID uuid.UUID, input UpdatePricingInput) (*ProductDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// repricer recomputes vendor purchase prices after a product's mrp changes.
type repricer interface {
	RepriceWithTx(ctx context.Context, tx *gorm.DB, product *models.Product) error
}

type service struct {
	repo     *Repository
	tx       txRunner
	repricer repricer
}

// NewService constructs the catalog service.
func NewService(repo *Repository, tx txRunner, repricer repricer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repricer == nil {
		return nil, fmt.Errorf("repricer required")
	}
	return &service{repo: repo, tx: tx, repricer: repricer}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// GetProducts returns the products that exist, keyed by id. Missing ids are
// simply absent; callers decide whether that is an error.
func (s *service) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	out := make(map[uuid.UUID]models.Product, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// UpdatePricing applies mrp/percentage changes, recomputes the derived prices
// and reprices every vendor entry for the product in the same transaction.
func (s *service) UpdatePricing(ctx context.Context, productID uuid.UUID, input UpdatePricingInput) (*ProductDTO, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := applyProductPricing(product, input); err != nil {
		return nil, err
	}
	for _, vi := range input.Variants {
		if err := applyVariantPricing(product, vi); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).SavePricing(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product pricing")
		}
		return s.repricer.RepriceWithTx(ctx, tx, product)
	})
	if err != nil {
		return nil, err
	}

	dto := mapProductDTO(*product)
	return &dto, nil
}

func applyProductPricing(product *models.Product, input UpdatePricingInput) error {
	mrp, sell, buy := product.MRP, product.SellingPercentage, product.PurchasePercentage
	if input.MRP != nil {
		mrp = *input.MRP
	}
	if input.SellingPercentage != nil {
		sell = *input.SellingPercentage
	}
	if input.PurchasePercentage != nil {
		buy = *input.PurchasePercentage
	}
	if err := validateTerms(mrp, sell, buy); err != nil {
		return err
	}

	triple := pricing.Derive(mrp, sell, buy)
	product.MRP = mrp
	product.SellingPercentage = sell
	product.PurchasePercentage = buy
	product.SellingPrice = triple.SellingPrice
	product.PurchasePrice = triple.PurchasePrice
	product.Discount = triple.Discount
	return nil
}

func applyVariantPricing(product *models.Product, input VariantPricingInput) error {
	for i := range product.Variants {
		v := &product.Variants[i]
		if v.ID != input.VariantID {
			continue
		}
		mrp, sell, buy := v.MRP, v.SellingPercentage, v.PurchasePercentage
		if input.MRP != nil {
			mrp = *input.MRP
		}
		if input.SellingPercentage != nil {
			sell = *input.SellingPercentage
		}
		if input.PurchasePercentage != nil {
			buy = *input.PurchasePercentage
		}
		if err := validateTerms(mrp, sell, buy); err != nil {
			return err
		}
		triple := pricing.Derive(mrp, sell, buy)
		v.MRP = mrp
		v.SellingPercentage = sell
		v.PurchasePercentage = buy
		v.SellingPrice = triple.SellingPrice
		v.PurchasePrice = triple.PurchasePrice
		if input.IsActive != nil {
			v.IsActive = *input.IsActive
		}
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product").
		WithDetails(map[string]any{"variant_id": input.VariantID})
}

func validateTerms(mrp, sell, buy decimal.Decimal) error {
	if !mrp.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "mrp must be greater than zero")
	}
	if err := pricing.ValidatePercentage(sell); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid selling_percentage")
	}
	if err := pricing.ValidatePercentage(buy); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase_percentage")
	}
	return nil
}
