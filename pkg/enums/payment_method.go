package enums

import "fmt"

// PaymentMethod describes how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodMock   PaymentMethod = "mock"
	PaymentMethodBank   PaymentMethod = "bank"
	PaymentMethodMomo   PaymentMethod = "momo"
	PaymentMethodStripe PaymentMethod = "stripe"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodMock,
	PaymentMethodBank,
	PaymentMethodMomo,
	PaymentMethodStripe,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// RequiresVendorConfirmation reports whether the method settles through a
// manual vendor confirmation step rather than immediately.
func (p PaymentMethod) RequiresVendorConfirmation() bool {
	return p == PaymentMethodBank || p == PaymentMethodMomo
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
