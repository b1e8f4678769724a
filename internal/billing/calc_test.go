package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

func item(qty, price, tax string) billing.LineItem {
	li := billing.LineItem{
		Quantity: decimal.RequireFromString(qty),
		Price:    decimal.RequireFromString(price),
	}
	if tax != "" {
		li.Tax = new(decimal.RequireFromString(tax))
	}

	return li
}

func TestCalculate(t *testing.T) {
	type want struct {
		subtotal, tax, retention, total string
	}

	type testCase struct {
		name      string
		items     []billing.LineItem
		retention string
		want      want
	}

	tests := []testCase{
		{
			name:      "TwoLinesWithRetention",
			items:     []billing.LineItem{item("2", "100", "21"), item("1", "50", "21")},
			retention: "15",
			want:      want{"250.00", "52.50", "37.50", "265.00"},
		},
		{
			name:      "NoItems",
			items:     []billing.LineItem{},
			retention: "15",
			want:      want{"0.00", "0.00", "0.00", "0.00"},
		},
		{
			name:      "NilItems",
			retention: "0",
			want:      want{"0.00", "0.00", "0.00", "0.00"},
		},
		{
			name:      "MixedRates",
			items:     []billing.LineItem{item("3", "10", "4"), item("1", "20", "10"), item("1", "5", "0")},
			retention: "0",
			want:      want{"55.00", "3.20", "0.00", "58.20"},
		},
		{
			name:      "MissingRateIsZero",
			items:     []billing.LineItem{item("1", "80", "")},
			retention: "7",
			want:      want{"80.00", "0.00", "5.60", "74.40"},
		},
		{
			name:      "CreditNotePassesThrough",
			items:     []billing.LineItem{item("-1", "100", "21"), item("2", "-10", "21")},
			retention: "15",
			want:      want{"-120.00", "-25.20", "-18.00", "-127.20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.Calculate(tt.items, decimal.RequireFromString(tt.retention))

			assert.Equal(t, tt.want.subtotal, got.Subtotal.StringFixed(2))
			assert.Equal(t, tt.want.tax, got.Tax.StringFixed(2))
			assert.Equal(t, tt.want.retention, got.Retention.StringFixed(2))
			assert.Equal(t, tt.want.total, got.Total.StringFixed(2))
			assert.True(t, got.Total.Equal(got.Subtotal.Add(got.Tax).Sub(got.Retention)))
		})
	}
}

func TestCalculate_RetentionIgnoresTax(t *testing.T) {
	rate := decimal.NewFromInt(15)

	low := billing.Calculate([]billing.LineItem{item("4", "25.5", "4")}, rate)
	high := billing.Calculate([]billing.LineItem{item("4", "25.5", "21")}, rate)

	assert.False(t, low.Tax.Equal(high.Tax))
	assert.True(t, low.Retention.Equal(high.Retention))
	assert.Equal(t, "15.30", high.Retention.StringFixed(2))
}

func TestCalculate_ExactUntilDisplay(t *testing.T) {
	got := billing.Calculate([]billing.LineItem{item("3", "0.333", "21")}, decimal.Zero)

	assert.Equal(t, "0.999", got.Subtotal.String())
	assert.Equal(t, "0.20979", got.Tax.String())
	assert.Equal(t, "1.20879", got.Total.String())
}

func TestLineItem_TaxRate(t *testing.T) {
	seven := decimal.NewFromInt(7)
	zero := decimal.Zero

	tests := []struct {
		name string
		item billing.LineItem
		want string
	}{
		{name: "Tax", item: billing.LineItem{Tax: new(decimal.NewFromInt(21))}, want: "21"},
		{name: "TaxValueFallback", item: billing.LineItem{TaxValue: &seven}, want: "7"},
		{name: "ZeroTaxFallsBack", item: billing.LineItem{Tax: &zero, TaxValue: &seven}, want: "7"},
		{name: "Neither", item: billing.LineItem{}, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.TaxRate().String())
		})
	}
}
