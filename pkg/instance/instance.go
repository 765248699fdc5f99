package instance

import "os"

// GetID names the running process in logs: FULFILLMENT_INSTANCE_ID, then the
// container hostname, then "local".
func GetID() string {
	for _, key := range []string{"FULFILLMENT_INSTANCE_ID", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
