package types

import "testing"

func TestDeliveryAddressScanRoundTripsStoredDocument(t *testing.T) {
	line2 := "  Flat 4 "
	in := DeliveryAddress{Line1: " 12 MG Road ", Line2: &line2, City: "Pune", Pincode: "411001"}.Normalized()
	if in.Country != "IN" || in.Line1 != "12 MG Road" || *in.Line2 != "Flat 4" {
		t.Fatalf("unexpected normalization %+v", in)
	}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var out DeliveryAddress
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out.Pincode != "411001" || out.Line2 == nil || *out.Line2 != "Flat 4" {
		t.Fatalf("unexpected scan %+v", out)
	}
}

func TestDeliveryAddressValidate(t *testing.T) {
	if err := (DeliveryAddress{Line1: "a", City: "b", Pincode: "c"}).Validate(); err != nil {
		t.Fatalf("expected valid address: %v", err)
	}
	for _, bad := range []DeliveryAddress{
		{City: "b", Pincode: "c"},
		{Line1: "a", Pincode: "c"},
		{Line1: "a", City: "b", Pincode: " "},
	} {
		if err := bad.Validate(); err == nil {
			t.Fatalf("expected %+v to be invalid", bad)
		}
	}
}
