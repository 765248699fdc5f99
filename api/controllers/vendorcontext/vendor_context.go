package vendorcontext

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-router/api/middleware"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
)

// ResolveVendorID extracts the caller's vendor and enforces vendor access.
func ResolveVendorID(r *http.Request) (uuid.UUID, error) {
	ctx := r.Context()
	if enums.Role(middleware.RoleFromContext(ctx)) != enums.RoleVendor {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor access required")
	}

	vendorID := middleware.VendorIDFromContext(ctx)
	if vendorID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context required")
	}

	id, err := uuid.Parse(vendorID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id")
	}
	return id, nil
}
