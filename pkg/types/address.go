package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// DeliveryAddress is stored as a jsonb document on the order.
type DeliveryAddress struct {
	Line1   string  `json:"line1" validate:"required"`
	Line2   *string `json:"line2,omitempty"`
	City    string  `json:"city" validate:"required"`
	State   string  `json:"state"`
	Pincode string  `json:"pincode" validate:"required"`
	Country string  `json:"country"`
}

// Validate checks the fields routing depends on.
func (a DeliveryAddress) Validate() error {
	switch {
	case strings.TrimSpace(a.Line1) == "":
		return fmt.Errorf("address: missing line1")
	case strings.TrimSpace(a.City) == "":
		return fmt.Errorf("address: missing city")
	case strings.TrimSpace(a.Pincode) == "":
		return fmt.Errorf("address: missing pincode")
	}
	return nil
}

// Normalized trims every field and defaults the country.
func (a DeliveryAddress) Normalized() DeliveryAddress {
	out := DeliveryAddress{
		Line1:   strings.TrimSpace(a.Line1),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Pincode: strings.TrimSpace(a.Pincode),
		Country: strings.TrimSpace(a.Country),
	}
	if a.Line2 != nil {
		line2 := strings.TrimSpace(*a.Line2)
		if line2 != "" {
			out.Line2 = &line2
		}
	}
	if out.Country == "" {
		out.Country = "IN"
	}
	return out
}

// Value marshals the address into its JSON document.
func (a DeliveryAddress) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the JSON document.
func (a *DeliveryAddress) Scan(value any) error {
	if value == nil {
		*a = DeliveryAddress{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return fmt.Errorf("address: unmarshal: %w", err)
	}
	return nil
}
