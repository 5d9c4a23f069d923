package orders

import (
	"github.com/shopspring/decimal"

	"github.com/inkingiwoods/sokohub-backend/pkg/config"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// Totals is the priced breakdown of an order. The invariant
// total = subtotal + delivery + tax holds by construction.
type Totals struct {
	Subtotal     decimal.Decimal
	DeliveryCost decimal.Decimal
	TaxRate      decimal.Decimal
	TaxAmount    decimal.Decimal
	Total        decimal.Decimal
}

// ComputeTotals prices an order. Delivery is free above the configured
// subtotal threshold and for pickup; tax applies to subtotal plus
// delivery. Amounts are rounded to two decimal places.
func ComputeTotals(subtotal decimal.Decimal, option enums.DeliveryOption, cfg config.CheckoutConfig) Totals {
	delivery := deliveryCost(subtotal, option, cfg)
	rate := cfg.TaxRate()
	tax := subtotal.Add(delivery).Mul(rate).Round(2)
	return Totals{
		Subtotal:     subtotal.Round(2),
		DeliveryCost: delivery,
		TaxRate:      rate,
		TaxAmount:    tax,
		Total:        subtotal.Round(2).Add(delivery).Add(tax),
	}
}

func deliveryCost(subtotal decimal.Decimal, option enums.DeliveryOption, cfg config.CheckoutConfig) decimal.Decimal {
	if option == enums.DeliveryOptionPickup {
		return decimal.Zero
	}
	if subtotal.GreaterThanOrEqual(cfg.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	if option == enums.DeliveryOptionExpress {
		return cfg.ExpressDeliveryCost
	}
	return cfg.StandardDeliveryCost
}
