package delivery

import "github.com/inkingiwoods/sokohub-backend/pkg/enums"

var nextDeliveryStatuses = map[enums.DeliveryStatus][]enums.DeliveryStatus{
	enums.DeliveryStatusPending:        {enums.DeliveryStatusPickedUp},
	enums.DeliveryStatusPickedUp:       {enums.DeliveryStatusInTransit},
	enums.DeliveryStatusInTransit:      {enums.DeliveryStatusOutForDelivery},
	enums.DeliveryStatusOutForDelivery: {enums.DeliveryStatusDelivered},
}

// IsTerminal reports whether a courier state admits no further moves.
func IsTerminal(status enums.DeliveryStatus) bool {
	return status == enums.DeliveryStatusDelivered || status == enums.DeliveryStatusFailed
}

// CanTransition reports whether a courier status move is legal. Failed is
// reachable from any non-terminal state; everything else walks the chain
// one step at a time.
func CanTransition(from, to enums.DeliveryStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if to == enums.DeliveryStatusFailed {
		return !IsTerminal(from)
	}
	for _, next := range nextDeliveryStatuses[from] {
		if next == to {
			return true
		}
	}
	return false
}
