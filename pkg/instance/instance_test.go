package instance

import "testing"

func TestGetIDPrefersExplicitInstance(t *testing.T) {
	t.Setenv("FULFILLMENT_INSTANCE_ID", "api-7")
	t.Setenv("HOSTNAME", "pod-abc")
	if got := GetID(); got != "api-7" {
		t.Fatalf("expected api-7 got %s", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("FULFILLMENT_INSTANCE_ID", "")
	t.Setenv("HOSTNAME", "pod-abc")
	if got := GetID(); got != "pod-abc" {
		t.Fatalf("expected pod-abc got %s", got)
	}

	t.Setenv("HOSTNAME", "")
	if got := GetID(); got != "local" {
		t.Fatalf("expected local got %s", got)
	}
}
