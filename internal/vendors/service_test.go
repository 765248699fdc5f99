package vendors

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	dbtypes "github.com/angelmondragon/fulfillment-router/pkg/db/types"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
)

type stubFinder struct {
	vendors map[uuid.UUID]*models.Vendor
	err     error
}

func (s stubFinder) FindByID(_ context.Context, id uuid.UUID) (*models.Vendor, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vendors[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestGetVendorNotFound(t *testing.T) {
	svc, _ := NewService(stubFinder{}, uuid.Nil)
	_, err := svc.GetVendor(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetVendorDependencyError(t *testing.T) {
	svc, _ := NewService(stubFinder{err: errors.New("conn reset")}, uuid.Nil)
	_, err := svc.GetVendor(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGetApprovedFulfiller(t *testing.T) {
	shop := &models.Vendor{ID: uuid.New(), Class: enums.VendorClassShop, IsApproved: true}
	unapproved := &models.Vendor{ID: uuid.New(), Class: enums.VendorClassShop}
	prime := &models.Vendor{ID: uuid.New(), Class: enums.VendorClassPrime, IsApproved: true}
	finder := stubFinder{vendors: map[uuid.UUID]*models.Vendor{
		shop.ID: shop, unapproved.ID: unapproved, prime.ID: prime,
	}}

	svc, _ := NewService(finder, shop.ID)
	got, err := svc.GetApprovedFulfiller(context.Background(), enums.VendorClassShop)
	if err != nil || got.ID != shop.ID {
		t.Fatalf("expected configured fulfiller, got %v %v", got, err)
	}

	cases := map[string]struct {
		id    uuid.UUID
		class enums.VendorClass
	}{
		"unconfigured": {uuid.Nil, enums.VendorClassShop},
		"missing":      {uuid.New(), enums.VendorClassShop},
		"unapproved":   {unapproved.ID, enums.VendorClassShop},
		"wrong class":  {prime.ID, enums.VendorClassShop},
		"prime ask":    {shop.ID, enums.VendorClassPrime},
	}
	for name, tc := range cases {
		svc, _ := NewService(finder, tc.id)
		if _, err := svc.GetApprovedFulfiller(context.Background(), tc.class); !pkgerrors.IsCode(err, pkgerrors.CodeNoFulfiller) {
			t.Fatalf("%s: expected NO_FULFILLER_AVAILABLE, got %v", name, err)
		}
	}
}

func TestEligible(t *testing.T) {
	brandB, brandC := uuid.New(), uuid.New()
	v1 := &models.Vendor{Class: enums.VendorClassPrime, IsApproved: true, BrandIDs: dbtypes.UUIDArray{brandB}}
	v2 := &models.Vendor{Class: enums.VendorClassPrime, IsApproved: true, BrandIDs: dbtypes.UUIDArray{brandC}}
	open := &models.Vendor{Class: enums.VendorClassPrime, IsApproved: true}
	shop := &models.Vendor{Class: enums.VendorClassShop, IsApproved: true}
	pending := &models.Vendor{Class: enums.VendorClassPrime}

	if !Eligible(v1, true, []uuid.UUID{brandB}) {
		t.Fatalf("v1 should see brand B")
	}
	if Eligible(v2, true, []uuid.UUID{brandB}) {
		t.Fatalf("v2 should not see brand B")
	}
	if Eligible(v1, true, []uuid.UUID{brandB, brandC}) {
		t.Fatalf("every brand must be authorized")
	}
	if !Eligible(open, true, []uuid.UUID{brandC}) {
		t.Fatalf("empty brand set should accept any prime brand")
	}
	if Eligible(shop, true, nil) || Eligible(v1, false, nil) {
		t.Fatalf("class mismatch must be ineligible")
	}
	if !Eligible(shop, false, []uuid.UUID{brandB}) {
		t.Fatalf("shop vendor ignores brands")
	}
	if Eligible(pending, true, nil) || Eligible(nil, true, nil) {
		t.Fatalf("unapproved or missing vendor must be ineligible")
	}
	if !Authorized(pending, true, nil) {
		t.Fatalf("authorization ignores approval")
	}
}
