package manufacturing

import (
	"github.com/shopspring/decimal"
)

// TaxRatePercent is the single value-added tax rate applied to every order.
// Only one rate exists in this domain; the per-order field is kept for audit.
const TaxRatePercent = 5

// CustomCharge is an ad hoc charge added on top of the taxed amount
// (e.g., shipping, embroidery setup). Charges are not taxed.
type CustomCharge struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// PriceBreakdown is the result of deriving an order's money totals
type PriceBreakdown struct {
	Subtotal     decimal.Decimal
	TaxableValue decimal.Decimal
	TaxAmount    decimal.Decimal
	GrandTotal   decimal.Decimal
}

// Price derives the money totals for an order. It is a pure function:
// every mutation that touches unit price, quantity, discount or custom
// charges must re-run it before the mutation is considered complete.
//
// A discount exceeding the subtotal clamps the taxable value to zero
// rather than producing a negative amount. Negative quantity or unit
// price must be rejected by validation upstream.
func Price(unitPrice decimal.Decimal, quantity int, discount decimal.Decimal, charges []CustomCharge) PriceBreakdown {
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	tax := taxable.Mul(decimal.NewFromInt(TaxRatePercent)).Div(decimal.NewFromInt(100))

	total := taxable.Add(tax)
	for _, charge := range charges {
		total = total.Add(charge.Amount)
	}

	return PriceBreakdown{
		Subtotal:     subtotal,
		TaxableValue: taxable,
		TaxAmount:    tax,
		GrandTotal:   total,
	}
}
