package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/internal/testsupport"
	"github.com/angelmondragon/fulfillment-router/pkg/db"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
)

type stubRepricer struct {
	calls []uuid.UUID
	err   error
}

func (s *stubRepricer) RepriceWithTx(_ context.Context, _ *gorm.DB, product *models.Product) error {
	s.calls = append(s.calls, product.ID)
	return s.err
}

func newTestService(t *testing.T) (Service, *gorm.DB, *stubRepricer) {
	t.Helper()
	conn := testsupport.NewDB(t)
	repricer := &stubRepricer{}
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), repricer)
	require.NoError(t, err)
	return svc, conn, repricer
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestGetProductNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetProduct(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetProductsSkipsMissing(t *testing.T) {
	svc, conn, _ := newTestService(t)
	p := testsupport.SeedProduct(t, conn, testsupport.ProductSpec{
		Variants: []testsupport.VariantSpec{{Label: "500g"}, {Label: "1kg"}},
	})

	got, err := svc.GetProducts(context.Background(), []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[p.ID].Variants, 2)
}

func TestUpdatePricingRecomputesAndCascades(t *testing.T) {
	svc, conn, repricer := newTestService(t)
	p := testsupport.SeedProduct(t, conn, testsupport.ProductSpec{})

	dto, err := svc.UpdatePricing(context.Background(), p.ID, UpdatePricingInput{MRP: decPtr("250")})
	require.NoError(t, err)

	assert.True(t, dto.SellingPrice.Equal(decimal.NewFromInt(200)), dto.SellingPrice.String())
	assert.True(t, dto.PurchasePrice.Equal(decimal.NewFromInt(150)), dto.PurchasePrice.String())
	assert.True(t, dto.Discount.Equal(decimal.NewFromInt(50)), dto.Discount.String())
	assert.Equal(t, []uuid.UUID{p.ID}, repricer.calls)

	var stored models.Product
	require.NoError(t, conn.First(&stored, "id = ?", p.ID).Error)
	assert.True(t, stored.MRP.Equal(decimal.NewFromInt(250)))
	assert.True(t, stored.SellingPrice.Equal(decimal.NewFromInt(200)))
}

func TestUpdatePricingVariant(t *testing.T) {
	svc, conn, _ := newTestService(t)
	p := testsupport.SeedProduct(t, conn, testsupport.ProductSpec{
		Variants: []testsupport.VariantSpec{{Label: "500g"}},
	})
	variantID := p.Variants[0].ID
	inactive := false

	dto, err := svc.UpdatePricing(context.Background(), p.ID, UpdatePricingInput{
		Variants: []VariantPricingInput{{VariantID: variantID, PurchasePercentage: decPtr("50"), IsActive: &inactive}},
	})
	require.NoError(t, err)
	require.Len(t, dto.Variants, 1)
	assert.True(t, dto.Variants[0].PurchasePrice.Equal(decimal.NewFromInt(50)))
	assert.False(t, dto.Variants[0].IsActive)

	var stored models.ProductVariant
	require.NoError(t, conn.First(&stored, "id = ?", variantID).Error)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.PurchasePrice.Equal(decimal.NewFromInt(50)))
}

func TestUpdatePricingValidation(t *testing.T) {
	svc, conn, repricer := newTestService(t)
	p := testsupport.SeedProduct(t, conn, testsupport.ProductSpec{})

	cases := []UpdatePricingInput{
		{MRP: decPtr("0")},
		{SellingPercentage: decPtr("101")},
		{PurchasePercentage: decPtr("-1")},
		{Variants: []VariantPricingInput{{VariantID: uuid.New()}}},
	}
	for _, input := range cases {
		_, err := svc.UpdatePricing(context.Background(), p.ID, input)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), err.Error())
	}
	assert.Empty(t, repricer.calls)
}

func TestUpdatePricingRollsBackWhenRepriceFails(t *testing.T) {
	svc, conn, repricer := newTestService(t)
	p := testsupport.SeedProduct(t, conn, testsupport.ProductSpec{})
	repricer.err = errors.New("boom")

	_, err := svc.UpdatePricing(context.Background(), p.ID, UpdatePricingInput{MRP: decPtr("300")})
	require.Error(t, err)

	var stored models.Product
	require.NoError(t, conn.First(&stored, "id = ?", p.ID).Error)
	assert.True(t, stored.MRP.Equal(decimal.NewFromInt(200)))
}
