package domain

import "github.com/shopspring/decimal"

var (
	TaxRate               = decimal.RequireFromString("0.10")
	FreeShippingThreshold = decimal.NewFromInt(100)
	FlatShippingFee       = decimal.NewFromInt(10)
)

type OrderTotals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// ComputeTotals derives tax, shipping and total from an unrounded subtotal.
// Rounding to cents happens once, on the returned values.
func ComputeTotals(subtotal decimal.Decimal) OrderTotals {
	tax := subtotal.Mul(TaxRate)
	shipping := FlatShippingFee
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	discount := decimal.Zero
	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	return OrderTotals{
		Subtotal:       subtotal.Round(2),
		TaxAmount:      tax.Round(2),
		ShippingAmount: shipping.Round(2),
		DiscountAmount: discount.Round(2),
		TotalAmount:    total.Round(2),
	}
}

// LineTotal is quantity × unit price.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
