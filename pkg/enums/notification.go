package enums

import "fmt"

// NotificationType labels both the published event and the in-app row.
type NotificationType string

const (
	NotificationTypeOrderAvailable     NotificationType = "order.available"
	NotificationTypeOrderAssigned      NotificationType = "order.assigned"
	NotificationTypeOrderClaimed       NotificationType = "order.claimed"
	NotificationTypeOrderStatusChanged NotificationType = "order.status_changed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderAvailable,
	NotificationTypeOrderAssigned,
	NotificationTypeOrderClaimed,
	NotificationTypeOrderStatusChanged,
}

func (n NotificationType) String() string {
	return string(n)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
