package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/internal/catalog"
	"github.com/angelmondragon/fulfillment-router/internal/ledger"
	"github.com/angelmondragon/fulfillment-router/internal/notifications"
	vendorpricing "github.com/angelmondragon/fulfillment-router/internal/pricing"
	"github.com/angelmondragon/fulfillment-router/internal/testsupport"
	"github.com/angelmondragon/fulfillment-router/internal/vendors"
	"github.com/angelmondragon/fulfillment-router/pkg/db"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/types"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Emit(_ context.Context, event notifications.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) last() notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return notifications.Event{}
	}
	return r.events[len(r.events)-1]
}

type harness struct {
	t       *testing.T
	db      *gorm.DB
	svc     Service
	events  *recordingNotifier
	pricing vendorpricing.Service
	shop    models.Vendor
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := testsupport.NewDB(t)
	shop := testsupport.SeedVendor(t, conn, enums.VendorClassShop)
	return buildHarness(t, conn, shop, shop.ID)
}

func buildHarness(t *testing.T, conn *gorm.DB, shop models.Vendor, fulfillerID uuid.UUID) *harness {
	t.Helper()
	client := db.NewFromConn(conn)

	vendorSvc, err := vendors.NewService(vendors.NewRepository(conn), fulfillerID)
	require.NoError(t, err)
	catalogRepo := catalog.NewRepository(conn)
	pricingRepo := vendorpricing.NewRepository(conn)
	pricingSvc, err := vendorpricing.NewService(pricingRepo, catalogRepo, vendorSvc, client)
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalogRepo, client, pricingSvc)
	require.NoError(t, err)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), pricingRepo, client)
	require.NoError(t, err)

	h := &harness{
		t:       t,
		db:      conn,
		events:  &recordingNotifier{},
		pricing: pricingSvc,
		shop:    shop,
		now:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Tx:         client,
		Catalog:    catalogSvc,
		Vendors:    vendorSvc,
		Pricing:    pricingSvc,
		Ledger:     ledgerSvc,
		Notifier:   h.events,
		Logger:     testsupport.Logger(),
		Now:        func() time.Time { return h.now },
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func testAddress() types.DeliveryAddress {
	return types.DeliveryAddress{Line1: " 12 MG Road ", City: "Bengaluru", State: "KA", Pincode: "560001"}
}

func (h *harness) order(customerID uuid.UUID, lines ...LineInput) CreateOrderInput {
	return CreateOrderInput{CustomerID: customerID, Lines: lines, Address: testAddress()}
}

func (h *harness) createPrimeOrder(products ...models.Product) *OrderDTO {
	h.t.Helper()
	lines := make([]LineInput, 0, len(products))
	for _, p := range products {
		lines = append(lines, LineInput{ProductID: p.ID, Quantity: 2})
	}
	dto, err := h.svc.CreateOrder(context.Background(), h.order(uuid.New(), lines...))
	require.NoError(h.t, err)
	return dto
}

func (h *harness) countOrders() int64 {
	h.t.Helper()
	var count int64
	require.NoError(h.t, h.db.Model(&models.Order{}).Count(&count).Error)
	return count
}

func (h *harness) storedOrder(id uuid.UUID) models.Order {
	h.t.Helper()
	var order models.Order
	require.NoError(h.t, h.db.Preload("Items").First(&order, "id = ?", id).Error)
	return order
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s: want %s, got %s", field, want, got.String())
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, code), "want %s, got %v", code, err)
}
