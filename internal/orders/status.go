package orders

import "github.com/inkingiwoods/sokohub-backend/pkg/enums"

// nextStatuses is the order state machine. Cancellation is handled
// separately: any non-terminal status may move to cancelled.
var nextStatuses = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending: {
		enums.OrderStatusAwaitingConfirmation,
		enums.OrderStatusProcessing,
	},
	enums.OrderStatusAwaitingConfirmation: {enums.OrderStatusProcessing},
	enums.OrderStatusProcessing:           {enums.OrderStatusShipped},
	enums.OrderStatusShipped:              {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:            {enums.OrderStatusCompleted},
	enums.OrderStatusCompleted:            nil,
	enums.OrderStatusCancelled:            nil,
}

// CanTransition reports whether the state machine permits moving from
// one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if to == enums.OrderStatusCancelled {
		return !from.IsTerminal()
	}
	for _, next := range nextStatuses[from] {
		if next == to {
			return true
		}
	}
	return false
}
