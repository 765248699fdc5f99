package vendors

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-router/pkg/db"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
)

// Service is the vendor directory.
type Service interface {
	GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	GetApprovedFulfiller(ctx context.Context, class enums.VendorClass) (*models.Vendor, error)
}

type vendorFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type service struct {
	repo        vendorFinder
	fulfillerID uuid.UUID
}

// NewService builds the directory. fulfillerID is the configured shop
// fulfiller; uuid.Nil means none is configured.
func NewService(repo vendorFinder, fulfillerID uuid.UUID) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	return &service{repo: repo, fulfillerID: fulfillerID}, nil
}

func (s *service) GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

// GetApprovedFulfiller resolves the configured fulfiller for class. Only the
// shop class has a singleton fulfiller.
func (s *service) GetApprovedFulfiller(ctx context.Context, class enums.VendorClass) (*models.Vendor, error) {
	if class != enums.VendorClassShop || s.fulfillerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNoFulfiller, "no fulfiller configured")
	}
	vendor, err := s.GetVendor(ctx, s.fulfillerID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNoFulfiller, "configured fulfiller does not exist")
		}
		return nil, err
	}
	if !vendor.IsApproved || vendor.Class != enums.VendorClassShop {
		return nil, pkgerrors.New(pkgerrors.CodeNoFulfiller, "configured fulfiller is not an approved shop vendor")
	}
	return vendor, nil
}
