package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fulfillment-router/internal/testsupport"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/pagination"
)

func (h *harness) createShopOrder(customerID uuid.UUID) *OrderDTO {
	h.t.Helper()
	product := testsupport.SeedProduct(h.t, h.db, testsupport.ProductSpec{})
	dto, err := h.svc.CreateOrder(context.Background(), h.order(customerID, LineInput{ProductID: product.ID, Quantity: 1}))
	require.NoError(h.t, err)
	return dto
}

func TestAdvanceStatusFollowsFulfillmentPath(t *testing.T) {
	h := newHarness(t)
	order := h.createShopOrder(uuid.New())

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusPacked,
		enums.OrderStatusPickedUp,
		enums.OrderStatusInTransit,
		enums.OrderStatusDelivered,
	} {
		dto, err := h.svc.AdvanceStatus(context.Background(), order.ID, h.shop.ID, next)
		require.NoError(t, err, next)
		assert.Equal(t, next, dto.Status)
	}

	assert.Equal(t, enums.OrderStatusDelivered, h.storedOrder(order.ID).Status)
	event := h.events.last()
	assert.Equal(t, enums.NotificationTypeOrderStatusChanged, event.Type)
	assert.Equal(t, enums.OrderStatusDelivered, event.Status)
	assert.Equal(t, enums.OrderStatusInTransit, event.Payload["from"])

	_, err := h.svc.AdvanceStatus(context.Background(), order.ID, h.shop.ID, enums.OrderStatusPacked)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAdvanceStatusRejections(t *testing.T) {
	h := newHarness(t)
	order := h.createShopOrder(uuid.New())
	other := testsupport.SeedVendor(t, h.db, enums.VendorClassPrime)

	_, err := h.svc.AdvanceStatus(context.Background(), order.ID, other.ID, enums.OrderStatusPacked)
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = h.svc.AdvanceStatus(context.Background(), order.ID, h.shop.ID, enums.OrderStatus("shipped"))
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.AdvanceStatus(context.Background(), order.ID, h.shop.ID, enums.OrderStatusCancelled)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	_, err = h.svc.AdvanceStatus(context.Background(), order.ID, h.shop.ID, enums.OrderStatusDelivered)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	_, err = h.svc.AdvanceStatus(context.Background(), uuid.New(), h.shop.ID, enums.OrderStatusPacked)
	assertCode(t, err, pkgerrors.CodeNotFound)

	assert.Equal(t, enums.OrderStatusAccepted, h.storedOrder(order.ID).Status)
}

func TestAdvanceStatusUnclaimedOrder(t *testing.T) {
	h := newHarness(t)
	product := testsupport.SeedProduct(t, h.db, testsupport.ProductSpec{Prime: true})
	order := h.createPrimeOrder(product)

	_, err := h.svc.AdvanceStatus(context.Background(), order.ID, h.shop.ID, enums.OrderStatusAccepted)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCancelOrder(t *testing.T) {
	h := newHarness(t)
	product := testsupport.SeedProduct(t, h.db, testsupport.ProductSpec{Prime: true})
	vendor := testsupport.SeedVendor(t, h.db, enums.VendorClassPrime)
	testsupport.SeedEntry(t, h.db, vendor.ID, product, "50", 10)
	order := h.createPrimeOrder(product)
	owner := order.CustomerID

	_, err := h.svc.CancelOrder(context.Background(), order.ID, uuid.New())
	assertCode(t, err, pkgerrors.CodeForbidden)

	dto, err := h.svc.CancelOrder(context.Background(), order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.Equal(t, enums.OrderStatusCancelled, h.storedOrder(order.ID).Status)

	_, err = h.svc.CancelOrder(context.Background(), order.ID, owner)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	_, err = h.svc.ClaimOrder(context.Background(), order.ID, vendor.ID)
	assertCode(t, err, pkgerrors.CodeAlreadyClaimed)

	list, err := h.svc.ListClaimableOrders(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCancelOrderAfterAcceptance(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()
	order := h.createShopOrder(customer)

	_, err := h.svc.CancelOrder(context.Background(), order.ID, customer)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestGetOrderVisibility(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()
	order := h.createShopOrder(customer)
	stranger := uuid.New()

	allowed := map[string]Actor{
		"owner":           {UserID: customer, Role: enums.RoleCustomer},
		"assigned vendor": {UserID: uuid.New(), Role: enums.RoleVendor, VendorID: &h.shop.ID},
		"admin":           {UserID: uuid.New(), Role: enums.RoleAdmin},
	}
	for name, actor := range allowed {
		t.Run(name, func(t *testing.T) {
			dto, err := h.svc.GetOrder(context.Background(), order.ID, actor)
			require.NoError(t, err)
			assert.Equal(t, order.ID, dto.ID)
		})
	}

	denied := map[string]Actor{
		"other customer":    {UserID: uuid.New(), Role: enums.RoleCustomer},
		"other vendor":      {UserID: uuid.New(), Role: enums.RoleVendor, VendorID: &stranger},
		"vendor without id": {UserID: uuid.New(), Role: enums.RoleVendor},
	}
	for name, actor := range denied {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.GetOrder(context.Background(), order.ID, actor)
			assertCode(t, err, pkgerrors.CodeForbidden)
		})
	}

	_, err := h.svc.GetOrder(context.Background(), uuid.New(), allowed["admin"])
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListVendorOrdersPagesNewestFirst(t *testing.T) {
	h := newHarness(t)
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		order := h.createShopOrder(uuid.New())
		require.NoError(t, h.db.Model(&models.Order{}).
			Where("id = ?", order.ID).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
		ids = append(ids, order.ID)
	}
	_, err := h.svc.AdvanceStatus(context.Background(), ids[0], h.shop.ID, enums.OrderStatusPacked)
	require.NoError(t, err)

	first, err := h.svc.ListVendorOrders(context.Background(), h.shop.ID, VendorOrderFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, ids[2], first.Orders[0].ID)
	assert.Equal(t, ids[1], first.Orders[1].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := h.svc.ListVendorOrders(context.Background(), h.shop.ID, VendorOrderFilters{}, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, ids[0], second.Orders[0].ID)
	assert.Empty(t, second.NextCursor)

	packed := enums.OrderStatusPacked
	filtered, err := h.svc.ListVendorOrders(context.Background(), h.shop.ID, VendorOrderFilters{Status: &packed}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, filtered.Orders, 1)
	assert.Equal(t, ids[0], filtered.Orders[0].ID)

	other := testsupport.SeedVendor(t, h.db, enums.VendorClassPrime)
	none, err := h.svc.ListVendorOrders(context.Background(), other.ID, VendorOrderFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, none.Orders)
}

func TestListVendorOrdersValidation(t *testing.T) {
	h := newHarness(t)
	bogus := enums.OrderStatus("shipped")

	_, err := h.svc.ListVendorOrders(context.Background(), h.shop.ID, VendorOrderFilters{}, pagination.Params{Cursor: "not-a-cursor!"})
	assertCode(t, err, pkgerrors.CodeValidation)
	_, err = h.svc.ListVendorOrders(context.Background(), h.shop.ID, VendorOrderFilters{Status: &bogus}, pagination.Params{})
	assertCode(t, err, pkgerrors.CodeValidation)
	_, err = h.svc.ListVendorOrders(context.Background(), uuid.Nil, VendorOrderFilters{}, pagination.Params{})
	assertCode(t, err, pkgerrors.CodeValidation)
}
