package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-router/pkg/enums"
)

// Event is an order lifecycle notification. A nil VendorID broadcasts to every
// vendor of the order's class.
type Event struct {
	ID           uuid.UUID              `json:"id"`
	Type         enums.NotificationType `json:"type"`
	OrderID      uuid.UUID              `json:"order_id"`
	VendorID     *uuid.UUID             `json:"vendor_id,omitempty"`
	IsPrimeClass bool                   `json:"is_prime_class"`
	Status       enums.OrderStatus      `json:"status"`
	OccurredAt   time.Time              `json:"occurred_at"`
	Payload      map[string]any         `json:"payload,omitempty"`
}

// Broadcast reports whether the event has no single recipient.
func (e Event) Broadcast() bool {
	return e.VendorID == nil
}

// Sink delivers events somewhere.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}
