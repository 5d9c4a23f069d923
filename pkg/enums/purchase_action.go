package enums

import "fmt"

// PurchaseAction labels an audit-log entry on a purchase.
type PurchaseAction string

const (
	PurchaseActionPurchase PurchaseAction = "purchase"
	PurchaseActionRefund   PurchaseAction = "refund"
)

var validPurchaseActions = []PurchaseAction{
	PurchaseActionPurchase,
	PurchaseActionRefund,
}

// String implements fmt.Stringer.
func (p PurchaseAction) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseAction.
func (p PurchaseAction) IsValid() bool {
	for _, candidate := range validPurchaseActions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePurchaseAction converts raw input into a PurchaseAction.
func ParsePurchaseAction(value string) (PurchaseAction, error) {
	for _, candidate := range validPurchaseActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase action %q", value)
}
