package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/fulfillment-router/pkg/db/models"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
)

// StoreSink writes in-app notification rows for events addressed to one
// vendor. Broadcasts are skipped; vendors poll the claimable list instead.
type StoreSink struct {
	repo Repository
}

func NewStoreSink(repo Repository) (*StoreSink, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &StoreSink{repo: repo}, nil
}

func (s *StoreSink) Deliver(ctx context.Context, event Event) error {
	if event.Broadcast() {
		return nil
	}
	title, message := describe(event)
	link := fmt.Sprintf("/vendor/orders/%s", event.OrderID)
	return s.repo.Create(ctx, &models.Notification{
		VendorID: *event.VendorID,
		Type:     event.Type,
		Title:    title,
		Message:  message,
		Link:     &link,
	})
}

func describe(event Event) (string, string) {
	short := event.OrderID.String()[:8]
	switch event.Type {
	case enums.NotificationTypeOrderAssigned:
		return "New order assigned", fmt.Sprintf("Order %s was assigned to you for fulfillment.", short)
	case enums.NotificationTypeOrderClaimed:
		return "Order claimed", fmt.Sprintf("You claimed order %s.", short)
	case enums.NotificationTypeOrderStatusChanged:
		status := strings.ReplaceAll(string(event.Status), "_", " ")
		return "Order status updated", fmt.Sprintf("Order %s is now %s.", short, status)
	case enums.NotificationTypeOrderAvailable:
		return "Order available", fmt.Sprintf("Order %s is available to claim.", short)
	default:
		return "Order update", fmt.Sprintf("Order %s changed.", short)
	}
}
