package enums

import "fmt"

// DeliveryOption selects how an order reaches the customer.
type DeliveryOption string

const (
	DeliveryOptionStandard DeliveryOption = "standard"
	DeliveryOptionExpress  DeliveryOption = "express"
	DeliveryOptionPickup   DeliveryOption = "pickup"
)

var validDeliveryOptions = []DeliveryOption{
	DeliveryOptionStandard,
	DeliveryOptionExpress,
	DeliveryOptionPickup,
}

// String implements fmt.Stringer.
func (d DeliveryOption) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryOption.
func (d DeliveryOption) IsValid() bool {
	for _, candidate := range validDeliveryOptions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryOption converts raw input into a DeliveryOption.
func ParseDeliveryOption(value string) (DeliveryOption, error) {
	for _, candidate := range validDeliveryOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery option %q", value)
}
