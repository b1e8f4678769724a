package billing

import "github.com/shopspring/decimal"

// Totals are exact; rounding happens only when amounts are displayed.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Retention decimal.Decimal `json:"retention"`
	Total     decimal.Decimal `json:"total"`
}

// Calculate derives invoice totals. Each item contributes its own VAT rate;
// retention is a percentage of the subtotal only. Negative quantities and
// prices pass through so credit notes net out.
func Calculate(items []LineItem, retentionRate decimal.Decimal) Totals {
	var subtotal, tax decimal.Decimal

	for _, item := range items {
		line := item.Subtotal()
		subtotal = subtotal.Add(line)
		tax = tax.Add(percent(line, item.TaxRate()))
	}

	retention := percent(subtotal, retentionRate)

	return Totals{
		Subtotal:  subtotal,
		Tax:       tax,
		Retention: retention,
		Total:     subtotal.Add(tax).Sub(retention),
	}
}

func percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Shift(-2)
}
