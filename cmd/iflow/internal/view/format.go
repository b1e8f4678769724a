package view

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/render"
)

// FormatMoney formats an amount the way invoices print it.
func FormatMoney(d decimal.Decimal) string {
	return render.Money(d)
}

// RenderSummary is the billing overview shared by the summary command and
// screen.
func RenderSummary(s billing.Summary) string {
	issuer := s.Issuer
	if issuer == "" {
		issuer = "Not set"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Billing Summary") + "\n\n")
	fmt.Fprintf(&b, "Issuer:             %s\n", issuer)
	fmt.Fprintf(&b, "Active Recipients:  %d (%d favorite)\n", s.Recipients, s.Favorites)
	fmt.Fprintf(&b, "Total Templates:    %d\n", s.Templates)
	fmt.Fprintf(&b, "Invoices:           %d\n", s.Invoices)
	fmt.Fprintf(&b, "Billed:             %s", FormatMoney(s.Billed))

	return b.String()
}

// ParseAmount parses a user-typed amount, accepting a decimal comma.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%q is not a number", s)
	}

	return d, nil
}
