// Package ledger records sales against a vendor once an order is claimed.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/internal/pricing"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
)

// Service defines operations that record ledger events.
type Service interface {
	RecordSale(ctx context.Context, input SaleInput) (*models.LedgerEvent, error)
}

// SaleInput captures one claimed order line.
type SaleInput struct {
	OrderID   uuid.UUID       `json:"order_id"`
	VendorID  uuid.UUID       `json:"vendor_id"`
	ProductID uuid.UUID       `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

type stockDecrementer interface {
	DecrementStock(ctx context.Context, vendorID, productID uuid.UUID, variantID *uuid.UUID, qty int) error
	DrainStock(ctx context.Context, vendorID, productID uuid.UUID, variantID *uuid.UUID) (int, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo  Repository
	stock func(tx *gorm.DB) stockDecrementer
	tx    txRunner
}

// NewService wires a ledger service. Stock is decremented through the
// pricing repository inside the same transaction as the ledger row.
func NewService(repo Repository, stock *pricing.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo:  repo,
		stock: func(tx *gorm.DB) stockDecrementer { return stock.WithTx(tx) },
		tx:    tx,
	}, nil
}

// RecordSale writes a sale_recorded event and takes the quantity out of the
// vendor's stock in one transaction. When stock is short the sale is still
// recorded: the remaining units are taken and the unmet quantity is kept in
// the event metadata as stock_shortfall. Recording the same order line again
// returns the first event and leaves stock alone.
func (s *service) RecordSale(ctx context.Context, input SaleInput) (*models.LedgerEvent, error) {
	if err := validateSale(input); err != nil {
		return nil, err
	}

	var event *models.LedgerEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindSale(ctx, input.OrderID, input.ProductID, input.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up ledger event")
		}
		if existing != nil {
			event = existing
			return nil
		}

		shortfall, err := s.takeStock(ctx, tx, input)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement vendor stock")
		}
		metadata, err := saleMetadata(input, shortfall)
		if err != nil {
			return err
		}
		event = &models.LedgerEvent{
			OrderID:   input.OrderID,
			VendorID:  input.VendorID,
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Type:      enums.LedgerEventTypeSaleRecorded,
			Quantity:  input.Quantity,
			Amount:    input.Amount,
			Metadata:  metadata,
		}
		if err := repo.Create(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ledger event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// takeStock decrements the full quantity, or drains what is left when that
// would go below zero. It returns the units that could not be taken.
func (s *service) takeStock(ctx context.Context, tx *gorm.DB, input SaleInput) (int, error) {
	stock := s.stock(tx)
	err := stock.DecrementStock(ctx, input.VendorID, input.ProductID, input.VariantID, input.Quantity)
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, pricing.ErrInsufficientStock) {
		return 0, err
	}
	taken, err := stock.DrainStock(ctx, input.VendorID, input.ProductID, input.VariantID)
	if err != nil {
		return 0, err
	}
	return input.Quantity - taken, nil
}

// StockShortfall reads the unmet quantity recorded on a sale event.
func StockShortfall(event *models.LedgerEvent) int {
	if event == nil || len(event.Metadata) == 0 {
		return 0
	}
	var meta struct {
		StockShortfall int `json:"stock_shortfall"`
	}
	if err := json.Unmarshal(event.Metadata, &meta); err != nil {
		return 0
	}
	return meta.StockShortfall
}

func saleMetadata(input SaleInput, shortfall int) (json.RawMessage, error) {
	meta := map[string]any{"quantity": input.Quantity, "amount": input.Amount}
	if shortfall > 0 {
		meta["stock_shortfall"] = shortfall
	}
	return json.Marshal(meta)
}

func validateSale(input SaleInput) error {
	switch {
	case input.OrderID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	case input.VendorID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	case input.ProductID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	case input.Quantity <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}
