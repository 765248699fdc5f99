package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-router/internal/notifications"
	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-router/pkg/errors"
	"github.com/angelmondragon/fulfillment-router/pkg/pagination"
)

// AdvanceStatus moves an order along the fulfillment path on behalf of its
// assigned vendor.
func (s *service) AdvanceStatus(ctx context.Context, orderID, vendorID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": target})
	}
	if target == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only the customer can cancel an order")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AssignedVendorID == nil || *order.AssignedVendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this vendor")
	}

	if err := s.transition(ctx, order, target); err != nil {
		return nil, err
	}

	dto := mapOrderDTO(*order)
	return &dto, nil
}

// CancelOrder lets the customer withdraw an order nobody has accepted yet.
func (s *service) CancelOrder(ctx context.Context, orderID, customerID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}

	if err := s.transition(ctx, order, enums.OrderStatusCancelled); err != nil {
		return nil, err
	}

	dto := mapOrderDTO(*order)
	return &dto, nil
}

func (s *service) transition(ctx context.Context, order *models.Order, target enums.OrderStatus) error {
	from := order.Status
	details := map[string]any{"from": from, "to": target}
	if !from.CanTransitionTo(target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").WithDetails(details)
	}

	at := s.now().UTC()
	ok, err := s.repo.TransitionStatus(ctx, order.ID, from, target, at)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently").WithDetails(details)
	}
	order.Status = target
	order.UpdatedAt = at

	logCtx := s.logCtx(ctx, order.ID, order.AssignedVendorID)
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{"from": from, "to": target}), "order status changed")

	s.notifier.Emit(ctx, notifications.Event{
		Type:         enums.NotificationTypeOrderStatusChanged,
		OrderID:      order.ID,
		VendorID:     order.AssignedVendorID,
		IsPrimeClass: order.IsPrimeClass,
		Status:       target,
		OccurredAt:   at,
		Payload:      map[string]any{"from": from},
	})
	return nil
}

// GetOrder returns an order to its customer, its assigned vendor or an admin.
func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(*order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not visible to caller")
	}
	dto := mapOrderDTO(*order)
	return &dto, nil
}

func canView(order models.Order, actor Actor) bool {
	switch actor.Role {
	case enums.RoleAdmin:
		return true
	case enums.RoleCustomer:
		return order.CustomerID == actor.UserID
	case enums.RoleVendor:
		return actor.VendorID != nil && order.AssignedVendorID != nil && *order.AssignedVendorID == *actor.VendorID
	default:
		return false
	}
}

// ListVendorOrders pages through the orders assigned to a vendor.
func (s *service) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, filters VendorOrderFilters, params pagination.Params) (*VendorOrderList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListVendorOrders(ctx, vendorID, filters, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	page, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	list := &VendorOrderList{Orders: make([]OrderDTO, 0, len(page)), NextCursor: next}
	for _, order := range page {
		list.Orders = append(list.Orders, mapOrderDTO(order))
	}
	return list, nil
}
