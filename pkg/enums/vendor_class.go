package enums

import "fmt"

// VendorClass separates brand-authorized prime vendors from the shop fulfiller.
type VendorClass string

const (
	VendorClassPrime VendorClass = "prime"
	VendorClassShop  VendorClass = "shop"
)

var validVendorClasses = []VendorClass{
	VendorClassPrime,
	VendorClassShop,
}

func (c VendorClass) String() string {
	return string(c)
}

func (c VendorClass) IsValid() bool {
	for _, candidate := range validVendorClasses {
		if candidate == c {
			return true
		}
	}
	return false
}

// HandlesPrime reports whether the class works prime-class orders.
func (c VendorClass) HandlesPrime() bool {
	return c == VendorClassPrime
}

func ParseVendorClass(value string) (VendorClass, error) {
	for _, candidate := range validVendorClasses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor class %q", value)
}
